package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kinohq/kino/internal/shared"
)

func staticTokens(token string) TokenSource {
	return func(ctx context.Context) (string, error) {
		return token, nil
	}
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(server.URL, staticTokens("test-token"), server.Client(), 0)
}

func TestClientList(t *testing.T) {
	t.Run("sends bearer token and pagination params", func(t *testing.T) {
		var gotAuth, gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotQuery = r.URL.RawQuery
			fmt.Fprint(w, `{"data":[{"id":"1","title":"A","publishYear":"2001"}],"meta":{"page":3,"limit":8,"total":17,"totalPages":3}}`)
		}))
		defer server.Close()

		client := newTestClient(server)
		page, err := client.List(context.Background(), 3, 8)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}

		if gotAuth != "Bearer test-token" {
			t.Errorf("expected bearer token header, got %q", gotAuth)
		}
		if gotQuery != "page=3&limit=8" {
			t.Errorf("unexpected query: %q", gotQuery)
		}
		if page.Page != 3 || len(page.Items) != 1 {
			t.Errorf("unexpected page: %+v", page)
		}
	})

	t.Run("rejects invalid pagination before any request", func(t *testing.T) {
		requested := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requested = true
		}))
		defer server.Close()

		client := newTestClient(server)
		if _, err := client.List(context.Background(), 0, 8); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if _, err := client.List(context.Background(), 1, 0); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if requested {
			t.Error("expected no request for invalid pagination")
		}
	})

	t.Run("times out slow responses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
		}))
		defer server.Close()

		client := NewClient(server.URL, staticTokens("test-token"), server.Client(), 50*time.Millisecond)
		_, err := client.List(context.Background(), 1, 8)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}

func TestClientGet(t *testing.T) {
	statuses := []struct {
		name   string
		status int
		want   error
	}{
		{"maps 401 to auth expired", http.StatusUnauthorized, shared.ErrAuthExpired},
		{"maps 403 to permission denied", http.StatusForbidden, shared.ErrPermissionDenied},
		{"maps 404 to not found", http.StatusNotFound, shared.ErrNotFound},
		{"maps 500 to request failed", http.StatusInternalServerError, shared.ErrRequestFailed},
	}

	for _, tc := range statuses {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := newTestClient(server)
			_, err := client.Get(context.Background(), "abc")
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	t.Run("decodes a successful response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/movies/abc" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			fmt.Fprint(w, `{"id":"abc","title":"Arrival","publishYear":"2016"}`)
		}))
		defer server.Close()

		client := newTestClient(server)
		movie, err := client.Get(context.Background(), "abc")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if movie.Title != "Arrival" {
			t.Errorf("unexpected movie: %+v", movie)
		}
	})

	t.Run("requires an id", func(t *testing.T) {
		client := NewClient("http://unused", staticTokens("t"), nil, 0)
		if _, err := client.Get(context.Background(), ""); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestClientCreate(t *testing.T) {
	t.Run("submits multipart fields and image part", func(t *testing.T) {
		imagePath := filepath.Join(t.TempDir(), "poster.jpg")
		if err := os.WriteFile(imagePath, []byte("fake image bytes"), 0644); err != nil {
			t.Fatalf("failed to write test image: %v", err)
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("failed to parse multipart form: %v", err)
			}
			if got := r.FormValue("title"); got != "Arrival" {
				t.Errorf("expected title field, got %q", got)
			}
			if got := r.FormValue("publishYear"); got != "2016" {
				t.Errorf("expected publishYear field, got %q", got)
			}
			if _, header, err := r.FormFile("image"); err != nil {
				t.Errorf("expected image part: %v", err)
			} else if header.Filename != "poster.jpg" {
				t.Errorf("unexpected image filename: %q", header.Filename)
			}
			fmt.Fprint(w, `{"id":"new","title":"Arrival","publishYear":"2016"}`)
		}))
		defer server.Close()

		client := newTestClient(server)
		movie, err := client.Create(context.Background(), Draft{Title: "Arrival", Year: "2016", ImagePath: imagePath})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if movie.ID != "new" {
			t.Errorf("unexpected movie: %+v", movie)
		}
	})

	t.Run("omits image part when no file given", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("failed to parse multipart form: %v", err)
			}
			if _, _, err := r.FormFile("image"); err == nil {
				t.Error("expected no image part")
			}
			fmt.Fprint(w, `{"id":"new","title":"Arrival","publishYear":"2016"}`)
		}))
		defer server.Close()

		client := newTestClient(server)
		if _, err := client.Create(context.Background(), Draft{Title: "Arrival", Year: "2016"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	})

	t.Run("rejects invalid draft before any request", func(t *testing.T) {
		requested := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requested = true
		}))
		defer server.Close()

		client := newTestClient(server)
		if _, err := client.Create(context.Background(), Draft{Title: "", Year: "2016"}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if requested {
			t.Error("expected no request for invalid draft")
		}
	})
}

func TestClientUpdate(t *testing.T) {
	t.Run("encodes only supplied fields", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch {
				t.Errorf("expected PATCH, got %s", r.Method)
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("failed to parse multipart form: %v", err)
			}
			if got := r.FormValue("title"); got != "Blade Runner" {
				t.Errorf("expected title field, got %q", got)
			}
			if _, ok := r.MultipartForm.Value["publishYear"]; ok {
				t.Error("expected publishYear to be omitted")
			}
			fmt.Fprint(w, `{"id":"abc","title":"Blade Runner","publishYear":"1982"}`)
		}))
		defer server.Close()

		client := newTestClient(server)
		movie, err := client.Update(context.Background(), "abc", Patch{Title: "Blade Runner"})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if movie.Title != "Blade Runner" {
			t.Errorf("unexpected movie: %+v", movie)
		}
	})

	t.Run("rejects empty patch", func(t *testing.T) {
		client := NewClient("http://unused", staticTokens("t"), nil, 0)
		if _, err := client.Update(context.Background(), "abc", Patch{}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestClientDelete(t *testing.T) {
	t.Run("succeeds on 2xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("expected DELETE, got %s", r.Method)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := newTestClient(server)
		if err := client.Delete(context.Background(), "abc"); err != nil {
			t.Errorf("Delete failed: %v", err)
		}
	})

	t.Run("treats 404 as already deleted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := newTestClient(server)
		if err := client.Delete(context.Background(), "gone"); err != nil {
			t.Errorf("expected nil for 404 delete, got %v", err)
		}
	})

	t.Run("propagates permission errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		client := newTestClient(server)
		if err := client.Delete(context.Background(), "abc"); !errors.Is(err, shared.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})
}

func TestClientTokenSource(t *testing.T) {
	t.Run("propagates token source failure", func(t *testing.T) {
		requested := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requested = true
		}))
		defer server.Close()

		failing := func(ctx context.Context) (string, error) {
			return "", fmt.Errorf("%w: session expired", shared.ErrAuthExpired)
		}
		client := NewClient(server.URL, failing, server.Client(), 0)
		_, err := client.List(context.Background(), 1, 8)
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("expected ErrAuthExpired, got %v", err)
		}
		if requested {
			t.Error("expected no request when token source fails")
		}
	})
}
