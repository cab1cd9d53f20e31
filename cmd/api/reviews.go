package main

import (
	"errors"
	"net/http"
	"strconv"

	"reelnotes/internal/catalog"
	"reelnotes/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateReviewPayload struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Content string `json:"content" validate:"required,max=5000"`
}

type UpdateReviewPayload struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Content string `json:"content" validate:"required,max=5000"`
}

func (app *application) attachShareCodes(reviews []store.Review) {
	for i := range reviews {
		code, err := app.shareCodes.Encode(reviews[i].ID)
		if err != nil {
			app.logger.Errorw("encoding share code failed", "review_id", reviews[i].ID, "error", err)
			continue
		}
		reviews[i].ShareCode = code
	}
}

func (app *application) reviewIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
}

// createReviewHandler godoc
//
//	@Summary		Create a review
//	@Description	Creates a 1-5 star review of a movie. One review per user per movie; the movie's aggregate rating is recomputed in the background.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			movieID	path		string				true	"Catalog movie ID"
//	@Param			payload	body		CreateReviewPayload	true	"Rating and review text"
//	@Success		201		{object}	store.Review
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error	"Movie unknown to cache and catalog"
//	@Failure		409		{object}	error	"Already reviewed"
//	@Security		ApiKeyAuth
//	@Router			/movies/{movieID}/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	movieID := chi.URLParam(r, "movieID")

	var payload CreateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	// Denormalize title and poster onto the review so lists render
	// without joining movies.
	movie, err := app.store.Movies.GetByID(ctx, movieID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			app.internalServerError(w, r, err)
			return
		}
		record, err := app.catalog.GetByID(ctx, movieID)
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
	}

	review := &store.Review{
		MovieID:     movieID,
		MovieTitle:  movie.Title,
		MoviePoster: movie.PosterURL,
		UserID:      user.ID,
		Rating:      payload.Rating,
		Content:     payload.Content,
	}

	if err := app.store.Reviews.Create(ctx, review); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateReview):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.recomputeMovieRating(movieID)

	review.UserName = user.Name
	review.UserHandle = user.Handle
	review.AvatarURL = user.AvatarURL
	if code, err := app.shareCodes.Encode(review.ID); err == nil {
		review.ShareCode = code
	}

	if err := app.jsonResponse(w, http.StatusCreated, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getReviewHandler godoc
//
//	@Summary		Fetch a review
//	@Description	Fetches a review with its full comment tree
//	@Tags			reviews
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	store.Review
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Failure		500			{object}	error
//	@Router			/reviews/{reviewID} [get]
func (app *application) getReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := app.reviewIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if code, err := app.shareCodes.Encode(review.ID); err == nil {
		review.ShareCode = code
	}

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getSharedReviewHandler godoc
//
//	@Summary		Fetch a review by share code
//	@Description	Resolves an opaque share code back to the review it names
//	@Tags			reviews
//	@Produce		json
//	@Param			code	path		string	true	"Share code"
//	@Success		200		{object}	store.Review
//	@Failure		404		{object}	error	"Unknown or malformed code"
//	@Failure		500		{object}	error
//	@Router			/reviews/shared/{code} [get]
func (app *application) getSharedReviewHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	reviewID, err := app.shareCodes.Decode(code)
	if err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	review.ShareCode = code

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getUserReviewsHandler godoc
//
//	@Summary		List a user's reviews
//	@Tags			reviews
//	@Produce		json
//	@Param			userID	path		int	true	"User ID"
//	@Success		200		{array}		store.Review
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/{userID}/reviews [get]
func (app *application) getUserReviewsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reviews, err := app.store.Reviews.ListByUser(r.Context(), userID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.attachShareCodes(reviews)

	if err := app.jsonResponse(w, http.StatusOK, reviews); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateReviewHandler godoc
//
//	@Summary		Update a review
//	@Description	Updates rating and text of the caller's own review and recomputes the movie's aggregate rating
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int					true	"Review ID"
//	@Param			payload		body		UpdateReviewPayload	true	"New rating and text"
//	@Success		200			{object}	store.Review
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error	"Not found or not yours"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [patch]
func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := app.reviewIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	if err := app.store.Reviews.Update(ctx, reviewID, user.ID, payload.Rating, payload.Content); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	review, err := app.store.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.recomputeMovieRating(review.MovieID)

	if code, err := app.shareCodes.Encode(review.ID); err == nil {
		review.ShareCode = code
	}

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteReviewHandler godoc
//
//	@Summary		Delete a review
//	@Description	Deletes the caller's own review, its embedded comments with it, and recomputes the movie's aggregate rating
//	@Tags			reviews
//	@Produce		json
//	@Param			reviewID	path		int		true	"Review ID"
//	@Success		204			{string}	string	"Review deleted"
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error	"Not found or not yours"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := app.reviewIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	// Need the movie id before the row is gone so the aggregate can be
	// recomputed afterwards.
	review, err := app.store.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.store.Reviews.Delete(ctx, reviewID, user.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.recomputeMovieRating(review.MovieID)

	w.WriteHeader(http.StatusNoContent)
}

// toggleReviewLikeHandler godoc
//
//	@Summary		Like or unlike a review
//	@Description	Toggles the caller's like on a review
//	@Tags			reviews
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	map[string]bool
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/like [put]
func (app *application) toggleReviewLikeHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := app.reviewIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	liked, err := app.store.Reviews.ToggleLike(r.Context(), reviewID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]bool{"liked": liked}); err != nil {
		app.internalServerError(w, r, err)
	}
}
