package main

import (
	"errors"
	"net/http"

	"reelnotes/internal/store"

	"github.com/go-chi/chi/v5"
)

func (app *application) addToList(w http.ResponseWriter, r *http.Request, kind store.ListKind) {
	user := getUserFromContext(r)
	movieID := chi.URLParam(r, "movieID")

	if err := app.store.Lists.Add(r.Context(), kind, user.ID, movieID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) removeFromList(w http.ResponseWriter, r *http.Request, kind store.ListKind) {
	user := getUserFromContext(r)
	movieID := chi.URLParam(r, "movieID")

	if err := app.store.Lists.Remove(r.Context(), kind, user.ID, movieID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) listMovies(w http.ResponseWriter, r *http.Request, kind store.ListKind) {
	user := getUserFromContext(r)

	movies, err := app.store.Lists.MoviesFor(r.Context(), kind, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, movies); err != nil {
		app.internalServerError(w, r, err)
	}
}

// addFavoriteHandler godoc
//
//	@Summary		Add a movie to favorites
//	@Tags			lists
//	@Produce		json
//	@Param			movieID	path		string	true	"Catalog movie ID"
//	@Success		204		{string}	string	"Added"
//	@Failure		404		{object}	error	"Movie not cached locally"
//	@Security		ApiKeyAuth
//	@Router			/movies/{movieID}/favorite [put]
func (app *application) addFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	app.addToList(w, r, store.ListFavorites)
}

// removeFavoriteHandler godoc
//
//	@Summary		Remove a movie from favorites
//	@Tags			lists
//	@Produce		json
//	@Param			movieID	path		string	true	"Catalog movie ID"
//	@Success		204		{string}	string	"Removed"
//	@Security		ApiKeyAuth
//	@Router			/movies/{movieID}/favorite [delete]
func (app *application) removeFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	app.removeFromList(w, r, store.ListFavorites)
}

// addWatchlistHandler godoc
//
//	@Summary		Add a movie to the watchlist
//	@Tags			lists
//	@Produce		json
//	@Param			movieID	path		string	true	"Catalog movie ID"
//	@Success		204		{string}	string	"Added"
//	@Failure		404		{object}	error	"Movie not cached locally"
//	@Security		ApiKeyAuth
//	@Router			/movies/{movieID}/watchlist [put]
func (app *application) addWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	app.addToList(w, r, store.ListWatchlist)
}

// removeWatchlistHandler godoc
//
//	@Summary		Remove a movie from the watchlist
//	@Tags			lists
//	@Produce		json
//	@Param			movieID	path		string	true	"Catalog movie ID"
//	@Success		204		{string}	string	"Removed"
//	@Security		ApiKeyAuth
//	@Router			/movies/{movieID}/watchlist [delete]
func (app *application) removeWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	app.removeFromList(w, r, store.ListWatchlist)
}

// listFavoritesHandler godoc
//
//	@Summary		List the caller's favorite movies
//	@Tags			lists
//	@Produce		json
//	@Success		200	{array}		store.Movie
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/me/favorites [get]
func (app *application) listFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	app.listMovies(w, r, store.ListFavorites)
}

// listWatchlistHandler godoc
//
//	@Summary		List the caller's watchlist
//	@Tags			lists
//	@Produce		json
//	@Success		200	{array}		store.Movie
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/me/watchlist [get]
func (app *application) listWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	app.listMovies(w, r, store.ListWatchlist)
}
