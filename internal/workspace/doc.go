// Package workspace is the demo store served by "vstore serve".
//
// State models an HTTP client workspace: projects holding collections of
// requests, environments, and a request history. It is composed from three
// slices whose actions are function fields created with the store's set
// and get closures. Every store write goes through store.Draft, so actions
// edit a private clone of the state.
//
// Actions that talk to a Backend update the store optimistically, then
// commit the backend's answer or roll back on error.
package workspace
