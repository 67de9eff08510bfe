package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/kinohq/kino/internal/catalog"
)

var _ list.Item = movieItem{}

// movieItem wraps [catalog.Movie] to implement [list.Item].
type movieItem struct {
	movie catalog.Movie
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string       { return i.movie.Title }
func (i movieItem) Description() string {
	desc := i.movie.PublishYear
	if i.movie.ImageURL != "" {
		desc = fmt.Sprintf("%s • poster", desc)
	}
	return desc
}
