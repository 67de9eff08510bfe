package ui

import "github.com/kinohq/kino/internal/catalog"

// PagerState tracks the list screen's fetch lifecycle.
type PagerState int

const (
	PagerIdle PagerState = iota
	PagerLoading
	PagerLoaded
	PagerError
)

// Pager owns pagination state for the movie list.
//
// Every fetch is tagged with a generation number; results whose generation
// no longer matches are discarded, so a slow response for an abandoned page
// can never overwrite a newer one.
type Pager struct {
	state      PagerState
	page       int
	totalPages int
	items      []catalog.Movie
	pageSize   int
	gen        uint64
	err        error
}

// NewPager creates an idle pager on page 1.
func NewPager(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = 8
	}
	return &Pager{
		state:      PagerIdle,
		page:       1,
		totalPages: 1,
		pageSize:   pageSize,
	}
}

func (p *Pager) State() PagerState      { return p.state }
func (p *Pager) Page() int              { return p.page }
func (p *Pager) TotalPages() int        { return p.totalPages }
func (p *Pager) Items() []catalog.Movie { return p.items }
func (p *Pager) PageSize() int          { return p.pageSize }
func (p *Pager) Err() error             { return p.err }

// BeginFetch transitions to Loading and returns the generation tag the
// caller must hand back through Apply.
func (p *Pager) BeginFetch() uint64 {
	p.gen++
	p.state = PagerLoading
	return p.gen
}

// Apply reconciles a fetch result. Stale results (generation mismatch) are
// dropped and Apply returns false; the pager state is untouched.
func (p *Pager) Apply(gen uint64, page *catalog.Page, err error) bool {
	if gen != p.gen {
		return false
	}

	if err != nil {
		p.state = PagerError
		p.err = err
		return true
	}

	p.state = PagerLoaded
	p.err = nil
	p.items = page.Items
	p.totalPages = page.TotalPages
	if page.Page >= 1 {
		p.page = page.Page
	}
	// The requested page may have vanished between fetches; clamp so the
	// next navigation starts from a page that exists.
	if p.page > p.totalPages {
		p.page = p.totalPages
	}
	return true
}

// Next advances one page. Returns true when the page changed and a refetch
// is due; at the last page it is a no-op.
func (p *Pager) Next() bool {
	if p.page >= p.totalPages {
		return false
	}
	p.page++
	return true
}

// Prev goes back one page; at page 1 it is a no-op.
func (p *Pager) Prev() bool {
	if p.page <= 1 {
		return false
	}
	p.page--
	return true
}

// Select jumps to the given page. Out-of-range requests are no-ops.
func (p *Pager) Select(page int) bool {
	if page < 1 || page > p.totalPages || page == p.page {
		return false
	}
	p.page = page
	return true
}

// PageAfterDelete returns the page to refetch after a successful delete:
// removing the sole item on a page beyond the first steps back one page so
// the user is not stranded on a page that no longer exists.
func (p *Pager) PageAfterDelete() int {
	if len(p.items) == 1 && p.page > 1 {
		p.page--
	}
	return p.page
}
