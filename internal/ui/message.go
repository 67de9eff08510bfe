package ui

import (
	"github.com/kinohq/kino/internal/catalog"
	"github.com/kinohq/kino/internal/identity"
)

// sessionResolvedMsg carries the snapshot once startup resolution finishes.
type sessionResolvedMsg struct {
	snap identity.Snapshot
}

// sessionChangedMsg carries a provider-pushed session change; ok is false
// when the subscription channel has been closed.
type sessionChangedMsg struct {
	snap identity.Snapshot
	ok   bool
}

type signedInMsg struct {
	user *identity.User
	err  error
}

type signedUpMsg struct {
	user *identity.User
	err  error
}

type signedOutMsg struct {
	err error
}

// moviesFetchedMsg is tagged with the pager generation that requested it so
// stale responses can be discarded.
type moviesFetchedMsg struct {
	gen  uint64
	page *catalog.Page
	err  error
}

type movieLoadedMsg struct {
	movie *catalog.Movie
	err   error
}

type movieSavedMsg struct {
	mode FormMode
	err  error
}

type movieDeletedMsg struct {
	id  string
	err error
}

// clearStatusMsg expires the transient status line.
type clearStatusMsg struct{}
