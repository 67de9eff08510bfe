// package formatter provides functions to export movie catalog data to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/kinohq/kino/internal/catalog"
	"github.com/kinohq/kino/internal/shared"
)

// ExportToCSV converts a movie collection to CSV format with columns: ID, Title, Year, Poster
func ExportToCSV(movies []catalog.Movie) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Year", "Poster"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, movie := range movies {
		record := []string{
			movie.ID,
			movie.Title,
			movie.PublishYear,
			movie.ImageURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a movie collection to Markdown format with an optional heading
func ExportToMarkdown(movies []catalog.Movie, heading string) ([]byte, error) {
	var buf bytes.Buffer

	if heading == "" {
		heading = "My movies"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", heading))
	buf.WriteString(fmt.Sprintf("**Movies**: %d\n\n", len(movies)))

	for i, movie := range movies {
		posterPart := ""
		if movie.ImageURL != "" {
			posterPart = fmt.Sprintf(" — [poster](%s)", movie.ImageURL)
		}
		buf.WriteString(fmt.Sprintf("%d. %s (%s)%s\n", i+1, movie.Title, movie.PublishYear, posterPart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a movie collection to plain text format
func ExportToText(movies []catalog.Movie) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Movies: %d\n\n", len(movies)))
	for i, movie := range movies {
		buf.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, movie.Title, movie.PublishYear))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a movie collection to indented JSON
func ExportToJSON(movies []catalog.Movie) ([]byte, error) {
	return shared.MarshalJSON(movies, true)
}

// WriteExport writes the collection to path in the given format (csv, markdown, txt, json).
//
// An empty path defaults to movies.{ext}; the written path is returned.
func WriteExport(movies []catalog.Movie, format, filepath string) (string, error) {
	var (
		data []byte
		ext  string
		err  error
	)

	switch format {
	case "csv":
		data, err = ExportToCSV(movies)
		ext = "csv"
	case "markdown", "md":
		data, err = ExportToMarkdown(movies, "")
		ext = "md"
	case "txt", "text":
		data, err = ExportToText(movies)
		ext = "txt"
	case "json", "":
		data, err = ExportToJSON(movies)
		ext = "json"
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", format, err)
	}

	if filepath == "" {
		filepath = fmt.Sprintf("movies.%s", ext)
	}
	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return filepath, nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WritePoster downloads a movie's poster and saves it to filepath.
//
// An empty filepath defaults to {movie.ID}_poster{ext}, with the extension
// taken from the URL when it has one.
func WritePoster(movie catalog.Movie, filepath string) (string, error) {
	if movie.ImageURL == "" {
		return "", fmt.Errorf("movie %q has no poster", movie.Title)
	}

	data, err := DownloadImage(movie.ImageURL)
	if err != nil {
		return "", err
	}

	if filepath == "" {
		ext := path.Ext(strings.SplitN(path.Base(movie.ImageURL), "?", 2)[0])
		if ext == "" {
			ext = ".jpg"
		}
		filepath = fmt.Sprintf("%s_poster%s", movie.ID, ext)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save poster: %w", err)
	}

	return filepath, nil
}
