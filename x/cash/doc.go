/*
Package cash defines a simple fungible token ledger.

There is no logic in the coins (tokens), except that the balance
of any coin may not go below zero. Thus, this implementation is
referred to as cash. Simple and safe.

Next to plain transfers between wallets an owner can grant a spender an
allowance. The spender is then able to move up to that amount out of the
owner's wallet using TransferFrom. This is how the escrow pulls deposited
tokens into its custody.
*/
package cash
