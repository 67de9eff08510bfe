package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kinohq/kino/internal/shared"
)

// Movie is the canonical catalog entry. IDs are assigned by the backend and
// immutable; PublishYear keeps 4-digit year semantics as a string.
type Movie struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PublishYear string `json:"publishYear"`
	ImageURL    string `json:"imageUrl"`
}

// Page is one page of the catalog as returned by the list endpoint.
type Page struct {
	Items      []Movie
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// Draft is the client-side payload for creating a movie. ImagePath points at
// a local poster file to upload; empty means no image.
type Draft struct {
	Title     string
	Year      string
	ImagePath string
}

// Validate checks a draft before any network call is made.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", shared.ErrValidation)
	}
	if err := validateYear(d.Year); err != nil {
		return err
	}
	return nil
}

// Patch carries the fields to change on update; empty fields are omitted
// from the request so the backend leaves them untouched.
type Patch struct {
	Title     string
	Year      string
	ImagePath string
}

// IsZero reports whether the patch carries no fields at all.
func (p Patch) IsZero() bool {
	return p.Title == "" && p.Year == "" && p.ImagePath == ""
}

// Validate checks the supplied patch fields before any network call.
func (p Patch) Validate() error {
	if p.IsZero() {
		return fmt.Errorf("%w: at least one of title, year, or image is required", shared.ErrValidation)
	}
	if p.Title != "" && strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", shared.ErrValidation)
	}
	if p.Year != "" {
		if err := validateYear(p.Year); err != nil {
			return err
		}
	}
	return nil
}

// earliestYear is the first year a film could plausibly carry.
const earliestYear = 1888

func validateYear(year string) error {
	if year == "" {
		return fmt.Errorf("%w: publishing year is required", shared.ErrValidation)
	}
	n, err := strconv.Atoi(year)
	if err != nil || len(year) != 4 {
		return fmt.Errorf("%w: publishing year must be a 4-digit year", shared.ErrValidation)
	}
	if n < earliestYear || n > time.Now().Year() {
		return fmt.Errorf("%w: publishing year must be between %d and %d", shared.ErrValidation, earliestYear, time.Now().Year())
	}
	return nil
}

// flexString decodes JSON values that arrive as either strings or numbers
// (the backend is not consistent about id and year types).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*f = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*f = flexString(num.String())
	return nil
}

// wireMovie is the raw backend shape with both historical field spellings.
type wireMovie struct {
	ID          flexString `json:"id"`
	Title       string     `json:"title"`
	Year        flexString `json:"year"`
	PublishYear flexString `json:"publishYear"`
	Image       string     `json:"image"`
	ImageURL    string     `json:"imageUrl"`
}

// normalize collapses the duplicate spellings into the canonical field set.
// The modern spelling wins when both are present.
func (w wireMovie) normalize() Movie {
	m := Movie{
		ID:          string(w.ID),
		Title:       w.Title,
		PublishYear: string(w.PublishYear),
		ImageURL:    w.ImageURL,
	}
	if m.PublishYear == "" {
		m.PublishYear = string(w.Year)
	}
	if m.ImageURL == "" {
		m.ImageURL = w.Image
	}
	return m
}

// wireEnvelope handles responses that wrap the resource in a data field as
// well as ones that return it bare.
type wireEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// decodeMovie parses a single-movie response body into canonical form.
func decodeMovie(body []byte) (*Movie, error) {
	payload := body
	var env wireEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		payload = env.Data
	}

	var wire wireMovie
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode movie: %w", err)
	}

	movie := wire.normalize()
	return &movie, nil
}

// wirePage is the raw list response shape.
type wirePage struct {
	Data []wireMovie `json:"data"`
	Meta struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		Total      int `json:"total"`
		TotalPages int `json:"totalPages"`
	} `json:"meta"`
}

// decodePage parses a list response body into canonical form.
func decodePage(body []byte) (*Page, error) {
	var wire wirePage
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode movie page: %w", err)
	}

	page := &Page{
		Items:      make([]Movie, 0, len(wire.Data)),
		Page:       wire.Meta.Page,
		Limit:      wire.Meta.Limit,
		Total:      wire.Meta.Total,
		TotalPages: wire.Meta.TotalPages,
	}
	for _, w := range wire.Data {
		page.Items = append(page.Items, w.normalize())
	}
	if page.TotalPages < 1 {
		page.TotalPages = 1
	}
	if page.Page < 1 {
		page.Page = 1
	}
	return page, nil
}
