/*
Package swapkeep defines the common interfaces that tie together the
escrow extension, the ledgers it moves assets on and the scheduler that
drives it, as well as a few small types that are shared between all of
them (addresses, conditions, time).

Context is passed through context.Context between the daemon, the HTTP
API, the upkeep runner and the extensions. Every value that we want to
carry in a context has a pair of functions:

  WithXYZ(context.Context, T) context.Context
  GetXYZ(context.Context) (val T, ok bool)

Storage is abstracted by KVStore. Extensions never hold a database
handle; they receive a store for every call, which allows the caller to
wrap it in a cache and either write or discard all changes at once.
*/
package swapkeep
