package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/kinohq/kino/internal/catalog"
)

// FormMode distinguishes creating a new movie from editing an existing one.
type FormMode int

const (
	FormCreate FormMode = iota
	FormEdit
)

// Form owns the movie form's state: field values, per-field validation
// messages, and the loaded original in edit mode (used to diff the patch).
type Form struct {
	Mode      FormMode
	ID        string
	Title     string
	Year      string
	ImagePath string

	// Errors maps field name ("title", "year") to a validation message.
	Errors map[string]string

	loading  bool
	original *catalog.Movie
}

// NewCreateForm returns an empty create-mode form.
func NewCreateForm() *Form {
	return &Form{Mode: FormCreate, Errors: map[string]string{}}
}

// NewEditForm returns an edit-mode form awaiting the movie fetch; the form
// is non-interactive until Populate or FailLoad is called.
func NewEditForm(id string) *Form {
	return &Form{Mode: FormEdit, ID: id, Errors: map[string]string{}, loading: true}
}

// Loading reports whether the edit-mode fetch is still in flight.
func (f *Form) Loading() bool { return f.loading }

// Populate fills the fields from the fetched movie and unlocks the form.
func (f *Form) Populate(movie catalog.Movie) {
	f.Title = movie.Title
	f.Year = movie.PublishYear
	f.ImagePath = ""
	f.original = &movie
	f.loading = false
}

// FailLoad unlocks the form with fields left at defaults after a failed
// edit-mode fetch.
func (f *Form) FailLoad() {
	f.loading = false
}

// ImagePreview returns the current poster reference: a newly chosen local
// file wins over the previously stored URL.
func (f *Form) ImagePreview() string {
	if f.ImagePath != "" {
		return f.ImagePath
	}
	if f.original != nil {
		return f.original.ImageURL
	}
	return ""
}

// Validate checks the fields and records per-field messages. It returns
// true when submission may proceed; no network call happens on failure.
func (f *Form) Validate() bool {
	f.Errors = map[string]string{}

	switch {
	case f.Title == "":
		f.Errors["title"] = "Title is required"
	case strings.TrimSpace(f.Title) == "":
		f.Errors["title"] = "Title cannot be empty"
	}

	switch {
	case f.Year == "":
		f.Errors["year"] = "Publishing year is required"
	default:
		if n, err := strconv.Atoi(f.Year); err != nil || len(f.Year) != 4 {
			f.Errors["year"] = "Publishing year must be a 4-digit year"
		} else if n < 1888 || n > time.Now().Year() {
			f.Errors["year"] = "Publishing year is out of range"
		}
	}

	return len(f.Errors) == 0
}

// Draft builds the create payload. The title is trimmed before submission.
func (f *Form) Draft() catalog.Draft {
	return catalog.Draft{
		Title:     strings.TrimSpace(f.Title),
		Year:      f.Year,
		ImagePath: f.ImagePath,
	}
}

// Patch builds the update payload from changed fields only. The second
// return value is false when nothing changed and no request is needed.
func (f *Form) Patch() (catalog.Patch, bool) {
	patch := catalog.Patch{}

	title := strings.TrimSpace(f.Title)
	if f.original == nil || title != f.original.Title {
		patch.Title = title
	}
	if f.original == nil || f.Year != f.original.PublishYear {
		patch.Year = f.Year
	}
	if f.ImagePath != "" {
		patch.ImagePath = f.ImagePath
	}

	return patch, !patch.IsZero()
}

// Reset clears the fields, errors, and image preview.
func (f *Form) Reset() {
	f.Title = ""
	f.Year = ""
	f.ImagePath = ""
	f.Errors = map[string]string{}
	f.original = nil
	f.loading = false
}
