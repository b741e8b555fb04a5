/*
Package server exposes the escrow over HTTP.

Read only endpoints are public. Endpoints that act on behalf of a party
require the request to be signed with that party's ed25519 key. The signer's
address, derived from the "sigs/ed25519/<pubkey>" condition, is the caller of
the escrow operation.
*/
package server
