// Package catalog is the typed client for the movie catalog REST API.
//
// [Client] exposes the resource operations (paginated list, get, create,
// update, delete) and attaches a bearer token sourced fresh from the session
// store on every call. Responses are normalized at this boundary: the
// backend uses `year`/`publishYear` and `image`/`imageUrl` interchangeably
// and wraps single resources in a `data` envelope inconsistently, so only
// the canonical [Movie] shape ever leaves this package.
//
// HTTP status codes are translated into the shared error taxonomy:
// 401 → ErrAuthExpired, 403 → ErrPermissionDenied, 404 → ErrNotFound,
// anything else → ErrRequestFailed with the operation attached.
package catalog
