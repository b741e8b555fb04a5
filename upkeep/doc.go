// Package upkeep provides a scheduler that drives a swapkeep.Upkeep
// implementation. It periodically asks whether an action is due and
// executes it when it is.
package upkeep
