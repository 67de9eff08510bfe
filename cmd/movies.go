package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kinohq/kino/internal/catalog"
	"github.com/kinohq/kino/internal/formatter"
	"github.com/kinohq/kino/internal/shared"
	"github.com/kinohq/kino/internal/tasks"
	"github.com/urfave/cli/v3"
)

// MoviesList fetches and prints one page of the movie list.
func (r *Runner) MoviesList(ctx context.Context, cmd *cli.Command) error {
	page := cmd.Int("page")
	limit := cmd.Int("limit")
	if limit <= 0 {
		limit = r.config.API.PageSize
	}

	result, err := r.movies.List(ctx, page, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	if len(result.Items) == 0 {
		return r.writePlain("Your movie list is empty\n")
	}

	r.writePlain("My movies (page %d/%d, %d total)\n\n", result.Page, result.TotalPages, result.Total)
	for _, movie := range result.Items {
		r.writePlain("%s  %s (%s)\n", movie.ID, movie.Title, movie.PublishYear)
	}
	return nil
}

// MoviesGet fetches and prints a single movie.
func (r *Runner) MoviesGet(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}

	movie, err := r.movies.Get(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(movie, cmd.Bool("pretty"))
	}

	r.writePlain("Title: %s\n", movie.Title)
	r.writePlain("Year:  %s\n", movie.PublishYear)
	r.writePlain("ID:    %s\n", movie.ID)
	if movie.ImageURL != "" {
		r.writePlain("Poster: %s\n", movie.ImageURL)
	}
	return nil
}

// MoviesCreate adds a movie to the catalog.
func (r *Runner) MoviesCreate(ctx context.Context, cmd *cli.Command) error {
	draft := catalog.Draft{
		Title:     cmd.String("title"),
		Year:      cmd.String("year"),
		ImagePath: cmd.String("image"),
	}
	if err := draft.Validate(); err != nil {
		return err
	}

	movie, err := r.movies.Create(ctx, draft)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Created %q (%s)\n", movie.Title, movie.ID)
}

// MoviesUpdate updates the provided fields of a movie.
func (r *Runner) MoviesUpdate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}

	patch := catalog.Patch{
		Title:     cmd.String("title"),
		Year:      cmd.String("year"),
		ImagePath: cmd.String("image"),
	}
	if patch.IsZero() {
		return fmt.Errorf("%w: provide at least one of --title, --year, --image", shared.ErrMissingArgument)
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	movie, err := r.movies.Update(ctx, id, patch)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Updated %q\n", movie.Title)
}

// MoviesDelete deletes a movie, prompting for confirmation unless --yes is set.
func (r *Runner) MoviesDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}

	if !cmd.Bool("yes") {
		r.writePlain("Delete movie %s? This cannot be undone. [y/N]: ", id)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			return r.writePlain("Cancelled\n")
		}
	}

	if err := r.movies.Delete(ctx, id); err != nil {
		return err
	}

	return r.writePlain("✓ Deleted\n")
}

// MoviesExport walks every page of the catalog and writes it to a file.
func (r *Runner) MoviesExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if format == "" {
		format = r.config.Export.Format
	}

	opts := tasks.ExportOpts{
		Format:    format,
		Output:    cmd.String("output"),
		RateLimit: r.config.Export.RateLimit,
	}

	prog := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.logger.Info(update.Message)
		}
	}()

	result, err := r.engine.ExportCatalog(ctx, prog, opts)
	close(prog)
	<-done
	if err != nil {
		return err
	}

	return r.writePlainln("✓ Exported %d movies to %s", result.TotalMovies, result.OutputFile)
}

// MoviesPoster downloads a movie's poster, or opens it in the browser.
func (r *Runner) MoviesPoster(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}

	movie, err := r.movies.Get(ctx, id)
	if err != nil {
		return err
	}
	if movie.ImageURL == "" {
		return fmt.Errorf("%w: movie %q has no poster", shared.ErrNotFound, movie.Title)
	}

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(movie.ImageURL); err != nil {
			return fmt.Errorf("failed to open poster: %w", err)
		}
		return r.writePlain("✓ Opened poster in browser\n")
	}

	path, err := formatter.WritePoster(*movie, cmd.String("output"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Poster saved to %s\n", path)
}
