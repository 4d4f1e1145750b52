// Package cli provides the interactive AssetFlow console.
//
// It restores the previous session, then runs a REPL over the session
// manager and the collection store. Typical flow: sign in with an emailed
// code or a password, browse and edit collections, download reports.
//
// Key features:
//   - otp / verify / login / signup / logout
//   - list with search, field filters and sorting
//   - show / create / update / delete records in any collection
//   - dashboard figures, mark-all-read, asset reports, property image upload
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
