package ui

import "github.com/kinohq/kino/internal/identity"

// Route identifies a screen in the TUI.
type Route int

const (
	RouteSignIn Route = iota
	RouteSignUp
	RouteMovies
	RouteMovieForm
	RouteConfirmDelete
)

// GateResult is a guard's verdict for the requested route.
type GateResult int

const (
	// GateLoading means the session is still resolving: render the neutral
	// loader and make no redirect decision yet.
	GateLoading GateResult = iota
	// GateAllow means the requested screen may render.
	GateAllow
	// GateRedirect means navigation must go to the returned route instead.
	GateRedirect
)

// GateAuthOnly guards the sign-in and sign-up screens: a signed-in user is
// redirected to the movie list, everyone else may render.
func GateAuthOnly(snap identity.Snapshot) (GateResult, Route) {
	if snap.Loading {
		return GateLoading, RouteSignIn
	}
	if snap.User != nil {
		return GateRedirect, RouteMovies
	}
	return GateAllow, RouteSignIn
}

// GateProtected guards the movie screens: without a resolved user,
// navigation is redirected to sign-in.
func GateProtected(snap identity.Snapshot) (GateResult, Route) {
	if snap.Loading {
		return GateLoading, RouteMovies
	}
	if snap.User == nil {
		return GateRedirect, RouteSignIn
	}
	return GateAllow, RouteMovies
}

// gateFor applies the guard matching the route's protection class.
func gateFor(route Route, snap identity.Snapshot) (GateResult, Route) {
	switch route {
	case RouteSignIn, RouteSignUp:
		return GateAuthOnly(snap)
	default:
		return GateProtected(snap)
	}
}
