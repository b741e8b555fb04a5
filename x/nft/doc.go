/*
Package nft implements a registry of non fungible tokens.

Each token is identified by a unique ID and has exactly one owner. The owner
can approve a single operator that is then allowed to transfer the token on
the owner's behalf. The approval is cleared whenever the token changes hands.
*/
package nft
