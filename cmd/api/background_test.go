package main

import (
	"context"
	"testing"
	"time"

	"reelnotes/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ratingWrite struct {
	movieID string
	average float64
	count   int
}

// moviesStub records aggregate-rating writes so tests can observe the
// background recomputation.
type moviesStub struct {
	upserted chan ratingWrite
}

func (s *moviesStub) GetByID(context.Context, string) (*store.Movie, error) {
	return nil, store.ErrNotFound
}
func (s *moviesStub) Upsert(context.Context, *store.Movie) error { return nil }
func (s *moviesStub) UpsertAggregateRating(_ context.Context, movieID string, average float64, count int) error {
	s.upserted <- ratingWrite{movieID: movieID, average: average, count: count}
	return nil
}

func TestRecomputeMovieRatingRoundsToOneDecimal(t *testing.T) {
	reviews := &reviewsStub{
		ratingStatsFn: func(_ context.Context, movieID string) (int, float64, error) {
			require.Equal(t, "tt0111161", movieID)
			return 3, 14.0 / 3.0, nil // ratings 5, 5, 4
		},
	}
	movies := &moviesStub{upserted: make(chan ratingWrite, 1)}

	app, _ := newTestApp(t, reviews, nil)
	app.store.Movies = movies

	app.recomputeMovieRating("tt0111161")

	select {
	case got := <-movies.upserted:
		assert.Equal(t, "tt0111161", got.movieID)
		assert.Equal(t, 4.7, got.average)
		assert.Equal(t, 3, got.count)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an aggregate rating write")
	}
}

func TestRecomputeMovieRatingEmptyReviewSet(t *testing.T) {
	reviews := &reviewsStub{
		ratingStatsFn: func(context.Context, string) (int, float64, error) {
			return 0, 0, nil
		},
	}
	movies := &moviesStub{upserted: make(chan ratingWrite, 1)}

	app, _ := newTestApp(t, reviews, nil)
	app.store.Movies = movies

	app.recomputeMovieRating("tt0468569")

	select {
	case got := <-movies.upserted:
		assert.Equal(t, float64(0), got.average)
		assert.Equal(t, 0, got.count)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an aggregate rating write")
	}
}
