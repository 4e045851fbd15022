// Package cli provides the interactive qaapi test client.
//
// It wires configuration, the local session database, the REST API client
// and an interactive REPL. Typical flow: restore the saved session (if
// any), start a background connectivity watcher, and execute user commands.
//
// Key features:
//   - Register / Login / Logout, with the session persisted between runs
//   - Me / Users / User / Count for browsing accounts
//   - Activate / Deactivate / Delete for superusers
//   - Health, timing a round trip to the server
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
