// Package swaptest provides helpers for testing code that depends on the
// swapkeep packages.
package swaptest
