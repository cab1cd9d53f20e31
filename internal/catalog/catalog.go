// Package catalog talks to the external movie-metadata provider. It is an
// HTTP adapter only; caching of the returned records lives in the store.
package catalog

import (
	"context"
	"errors"
)

var ErrMovieNotFound = errors.New("movie not found in catalog")

// Movie is the provider-shaped metadata record.
type Movie struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Year   string   `json:"year,omitempty"`
	Poster string   `json:"poster,omitempty"`
	Plot   string   `json:"plot,omitempty"`
	Genres []string `json:"genres,omitempty"`
}

type Provider interface {
	GetByID(ctx context.Context, id string) (*Movie, error)
	SearchByTitle(ctx context.Context, title string) ([]Movie, error)
	// Lookup is the fallback chain: by id first, then a title search
	// taking the first hit. Nothing found means ErrMovieNotFound.
	Lookup(ctx context.Context, id, title string) (*Movie, error)
}
