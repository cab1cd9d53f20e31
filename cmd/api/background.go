package main

import (
	"context"
	"math"

	"reelnotes/internal/store"
)

// recomputeMovieRating rederives a movie's aggregate rating from its full
// review set and writes it onto the movie row. Runs off the request path:
// the review write it follows has already committed, and a failure here
// only leaves the aggregate stale until the next review touches the movie.
func (app *application) recomputeMovieRating(movieID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), store.QueryTimeoutDuration)
		defer cancel()

		count, average, err := app.store.Reviews.RatingStats(ctx, movieID)
		if err != nil {
			app.logger.Errorw("reading rating stats failed", "movie_id", movieID, "error", err)
			return
		}

		rounded := math.Round(average*10) / 10

		if err := app.store.Movies.UpsertAggregateRating(ctx, movieID, rounded, count); err != nil {
			app.logger.Errorw("writing aggregate rating failed", "movie_id", movieID, "error", err)
		}
	}()
}
