package main

import (
	"context"
	"errors"
	"math"
	"net/http"

	"reelnotes/internal/catalog"
	"reelnotes/internal/store"

	"github.com/go-chi/chi/v5"
)

func movieFromCatalog(m *catalog.Movie) *store.Movie {
	return &store.Movie{
		ID:        m.ID,
		Title:     m.Title,
		Year:      m.Year,
		PosterURL: m.Poster,
		Plot:      m.Plot,
		Genres:    m.Genres,
	}
}

// getMovieHandler godoc
//
//	@Summary		Fetch a movie
//	@Description	Serves a movie from the local cache, falling back to the external catalog (by id, then by title when ?title= is given) and caching the result
//	@Tags			movies
//	@Produce		json
//	@Param			movieID	path		string	true	"Catalog movie ID"
//	@Param			title	query		string	false	"Title to search when the id is unknown to the catalog"
//	@Success		200		{object}	store.Movie
//	@Failure		404		{object}	error	"Movie unknown to cache and catalog"
//	@Failure		500		{object}	error
//	@Router			/movies/{movieID} [get]
func (app *application) getMovieHandler(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieID")

	ctx := r.Context()

	movie, err := app.store.Movies.GetByID(ctx, movieID)
	if err == nil {
		if err := app.jsonResponse(w, http.StatusOK, movie); err != nil {
			app.internalServerError(w, r, err)
		}
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		app.internalServerError(w, r, err)
		return
	}

	// Cache miss: ask the catalog, falling back to a title search.
	record, err := app.catalog.Lookup(ctx, movieID, r.URL.Query().Get("title"))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrMovieNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	movie = movieFromCatalog(record)
	if err := app.store.Movies.Upsert(ctx, movie); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, movie); err != nil {
		app.internalServerError(w, r, err)
	}
}

// searchMoviesHandler godoc
//
//	@Summary		Search movies by title
//	@Description	Proxies a title search to the external catalog and caches the hits in the background
//	@Tags			movies
//	@Produce		json
//	@Param			q	query		string	true	"Title to search for"
//	@Success		200	{array}		catalog.Movie
//	@Failure		400	{object}	error	"Missing query"
//	@Failure		500	{object}	error
//	@Router			/movies/search [get]
func (app *application) searchMoviesHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		app.badRequestResponse(w, r, errors.New("missing q query parameter"))
		return
	}

	results, err := app.catalog.SearchByTitle(r.Context(), query)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// Warm the cache off the request path; a failed upsert only costs a
	// catalog round trip next time.
	go func(hits []catalog.Movie) {
		ctx, cancel := context.WithTimeout(context.Background(), store.QueryTimeoutDuration)
		defer cancel()

		for i := range hits {
			if err := app.store.Movies.Upsert(ctx, movieFromCatalog(&hits[i])); err != nil {
				app.logger.Errorw("caching search hit failed", "movie_id", hits[i].ID, "error", err)
			}
		}
	}(results)

	if err := app.jsonResponse(w, http.StatusOK, results); err != nil {
		app.internalServerError(w, r, err)
	}
}

type movieReviews struct {
	Reviews   []store.Review `json:"reviews"`
	AvgRating float64        `json:"avg_rating"`
	Count     int            `json:"count"`
}

// getMovieReviewsHandler godoc
//
//	@Summary		List reviews of a movie
//	@Description	Lists all reviews of a movie with the live aggregate rating
//	@Tags			movies
//	@Produce		json
//	@Param			movieID	path		string	true	"Catalog movie ID"
//	@Success		200		{object}	movieReviews
//	@Failure		500		{object}	error
//	@Router			/movies/{movieID}/reviews [get]
func (app *application) getMovieReviewsHandler(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieID")

	ctx := r.Context()

	reviews, err := app.store.Reviews.ListByMovie(ctx, movieID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	count, average, err := app.store.Reviews.RatingStats(ctx, movieID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.attachShareCodes(reviews)

	payload := movieReviews{
		Reviews:   reviews,
		AvgRating: math.Round(average*10) / 10,
		Count:     count,
	}

	if err := app.jsonResponse(w, http.StatusOK, payload); err != nil {
		app.internalServerError(w, r, err)
	}
}
