// Package tui is the terminal viewer behind "vstore watch".
//
// A Feed reads frames from a devtools stream and is the only writer of a
// local view store. The Bubble Tea model observes that store through
// teabind and renders the attached stores and the selected store's state.
package tui
