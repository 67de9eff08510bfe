package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/kinohq/kino/internal/catalog"
	"github.com/kinohq/kino/internal/formatter"
	"github.com/kinohq/kino/internal/shared"
	"golang.org/x/time/rate"
)

// ExportOpts contains configuration for full-catalog exports.
type ExportOpts struct {
	Format    string  // Export format: json, csv, markdown, txt
	Output    string  // Output file path (default: movies.{ext})
	PageSize  int     // Movies fetched per request (default: 50)
	RateLimit float64 // Requests per second (default: 5)
}

// ExportResult summarizes a full-catalog export.
type ExportResult struct {
	TotalMovies int    `json:"total_movies"`
	PagesWalked int    `json:"pages_walked"`
	Format      string `json:"format"`
	OutputFile  string `json:"output_file"`
	ExportedAt  string `json:"exported_at"`
}

// ExportCatalog walks every page of the movie list and writes the combined
// collection in the requested format.
//
// Requests are rate limited so a large catalog cannot hammer the API. The
// walk stops early on context cancellation or a page fetch error; no partial
// file is written in either case.
func (e *CatalogEngine) ExportCatalog(ctx context.Context, prog chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrRequestFailed)
	}

	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.PageSize > 100 {
		opts.PageSize = 100
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	var movies []catalog.Movie
	page, totalPages := 1, 1

	for page <= totalPages {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("export cancelled: %w", err)
		}

		e.sendProgress(prog, ProgressUpdate{
			Phase:   FetchPages,
			Step:    page,
			Total:   totalPages,
			Message: fmt.Sprintf("Fetching page %d/%d...", page, totalPages),
		})

		result, err := e.source.List(ctx, page, opts.PageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		movies = append(movies, result.Items...)
		totalPages = result.TotalPages
		page++
	}

	e.sendProgress(prog, ProgressUpdate{
		Phase:   WriteFiles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d movies...", len(movies)),
	})

	written, err := formatter.WriteExport(movies, opts.Format, opts.Output)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{
		TotalMovies: len(movies),
		PagesWalked: page - 1,
		Format:      opts.Format,
		OutputFile:  written,
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	e.sendProgress(prog, ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Exported %d movies to %s", result.TotalMovies, result.OutputFile),
	})

	if e.logger != nil {
		e.logger.Debug("export complete", "movies", result.TotalMovies, "file", result.OutputFile)
	}
	return result, nil
}
