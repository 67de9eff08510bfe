// Package repositories provides the local persistence layer.
//
// The only persisted entity is the provider session: the terminal client
// keeps the latest issued tokens in SQLite so a new invocation can resume
// the session instead of forcing a fresh sign-in (the analog of a browser
// keeping the session in local storage). Catalog data is never cached.
package repositories
