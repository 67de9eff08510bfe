// Package identity wraps the external identity provider and owns session state.
//
// The package contains two layers:
//
//  1. [Provider] : a typed HTTP client for a GoTrue-compatible auth endpoint
//     (password sign-in, sign-up, sign-out, token refresh, user lookup).
//  2. [Store] : the process-wide source of truth for "who is logged in",
//     with lifecycle init → resolving → resolved (user | none).
//
// The [Store] resolves asynchronously at startup from the local session
// keeper, refreshing expired tokens through the provider. Consumers read
// [Snapshot] values via Current and receive change notifications via
// Subscribe; while Snapshot.Loading is true the identity must be treated
// as unknown, not as signed-out.
package identity
