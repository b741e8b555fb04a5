/*
Package swap implements a two party escrow that exchanges a fixed amount of
fungible tokens for a single unique asset.

Both parties and the traded amounts are fixed by the configuration. Each side
deposits into the escrow custody on its own. Once both sides are held the
escrow swaps them. If only one side is held when the timeout elapses, the
deposit is returned. Either party can withdraw its own deposit at any time
before the swap happens.

The escrow does not act by itself. It implements the swapkeep.Upkeep
interface and relies on an external scheduler to ask whether an action is
due and to trigger it.
*/
package swap
