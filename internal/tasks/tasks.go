// package tasks implements long-running catalog operations.
//
// The core abstraction is CatalogEngine, which walks the paginated movie API
// to produce full-catalog exports. Operations emit progress updates via
// channels for non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/kinohq/kino/internal/catalog"
)

// ProgressUpdate reports a step of a long-running operation.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	FetchPages Phase = iota
	WriteFiles
	Done
)

// Lister is the slice of the catalog client the export engine needs.
type Lister interface {
	List(ctx context.Context, page, limit int) (*catalog.Page, error)
}

// CatalogEngine implements catalog-wide operations over a Lister.
type CatalogEngine struct {
	source Lister
	logger *log.Logger
}

// NewCatalogEngine creates a CatalogEngine backed by the given source.
func NewCatalogEngine(source Lister, logger *log.Logger) *CatalogEngine {
	return &CatalogEngine{source: source, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *CatalogEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
