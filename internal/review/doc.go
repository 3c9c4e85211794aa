// Package review owns the item lifecycle: intake files are staged, run
// through inference, and parked for a human to confirm, edit, or delete.
//
// Confirm is the only path into the library. It commits the approved tags to
// the staged copy, moves it to <library>/<artist>/<album>/<title><ext> without
// overwriting anything, and only then removes the intake original. Every
// mutation of an item is serialized per item id.
package review
