package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Title/test-key/tt0111161", r.URL.Path)
		fmt.Fprint(w, `{
			"id": "tt0111161",
			"title": "The Shawshank Redemption",
			"year": "1994",
			"image": "https://img.example/poster.jpg",
			"plot": "Two imprisoned men bond over a number of years.",
			"genres": "Drama, Crime"
		}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)

	movie, err := c.GetByID(context.Background(), "tt0111161")
	require.NoError(t, err)
	assert.Equal(t, "tt0111161", movie.ID)
	assert.Equal(t, "The Shawshank Redemption", movie.Title)
	assert.Equal(t, []string{"Drama", "Crime"}, movie.Genres)
}

func TestGetByIDProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errorMessage": "Invalid API Key"}`)
	}))
	defer srv.Close()

	c := NewClient("bad-key", srv.URL)

	_, err := c.GetByID(context.Background(), "tt0111161")
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestSearchByTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/SearchMovie/test-key/shawshank", r.URL.Path)
		fmt.Fprint(w, `{
			"results": [
				{"id": "tt0111161", "title": "The Shawshank Redemption", "description": "1994"},
				{"id": "tt9999999", "title": "Shawshank: The Documentary", "description": "2001"}
			]
		}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)

	movies, err := c.SearchByTitle(context.Background(), "shawshank")
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "tt0111161", movies[0].ID)
}

func TestLookupFallsBackToSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/Title/test-key/tt0000000":
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/SearchMovie/test-key/inception":
			fmt.Fprint(w, `{"results": [{"id": "tt1375666", "title": "Inception", "description": "2010"}]}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)

	movie, err := c.Lookup(context.Background(), "tt0000000", "inception")
	require.NoError(t, err)
	assert.Equal(t, "tt1375666", movie.ID)
}

func TestLookupNothingFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path[:7] == "/Title/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"results": []}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)

	_, err := c.Lookup(context.Background(), "tt0000000", "definitely not a movie")
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestLookupByIDOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)

	// no title to fall back on: the id error surfaces
	_, err := c.Lookup(context.Background(), "tt0000000", "")
	assert.ErrorIs(t, err, ErrMovieNotFound)
}
