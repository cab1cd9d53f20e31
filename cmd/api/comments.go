package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"reelnotes/internal/comments"
	"reelnotes/internal/notifications"
	"reelnotes/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateCommentPayload struct {
	Content  string `json:"content" validate:"required,max=2000"`
	ParentID string `json:"parent_id,omitempty"`
}

type EditCommentPayload struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// createCommentHandler godoc
//
//	@Summary		Comment on a review
//	@Description	Adds a top-level comment, or a reply when parent_id names an existing top-level comment. @handle mentions are resolved and notified.
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int						true	"Review ID"
//	@Param			payload		body		CreateCommentPayload	true	"Comment text and optional parent"
//	@Success		201			{object}	comments.Comment
//	@Failure		400			{object}	error	"Empty content"
//	@Failure		404			{object}	error	"Review or parent comment not found"
//	@Failure		409			{object}	error	"Too much write contention, retry"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/comments [post]
func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := app.reviewIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CreateCommentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	// Resolve @handles before the write so mention ids are stored on the
	// comment itself. Handles that match no user are dropped.
	var mentionIDs []int64
	if handles := comments.ExtractMentions(payload.Content); len(handles) > 0 {
		resolved, err := app.store.Users.ResolveHandles(ctx, handles)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		for _, id := range resolved {
			mentionIDs = append(mentionIDs, id)
		}
	}

	author := comments.Author{
		ID:     user.ID,
		Name:   user.Name,
		Handle: user.Handle,
		Avatar: user.AvatarURL,
	}

	comment, err := app.store.Reviews.CreateComment(ctx, reviewID, author, payload.Content, payload.ParentID, mentionIDs)
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrEmptyContent):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, comments.ErrNotFound), errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if len(mentionIDs) > 0 {
		go app.notifyMentions(user, reviewID, comment.ID, mentionIDs)
	}

	if err := app.jsonResponse(w, http.StatusCreated, comment); err != nil {
		app.internalServerError(w, r, err)
	}
}

// notifyMentions persists a notification row per mentioned user and fires
// a push for each. Runs off the request path; failures are logged only.
func (app *application) notifyMentions(sender *store.User, reviewID int64, commentID string, mentionIDs []int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, recipientID := range mentionIDs {
		if recipientID == sender.ID {
			continue
		}

		n := &store.Notification{
			RecipientID: recipientID,
			SenderID:    sender.ID,
			Kind:        store.KindMention,
			ReviewID:    reviewID,
			CommentID:   commentID,
		}
		if err := app.store.Notifications.Create(ctx, n); err != nil {
			app.logger.Errorw("creating mention notification failed", "recipient_id", recipientID, "error", err)
			continue
		}

		err := notifications.SendMentionPush(ctx, app.push, app.store.PushTokens, recipientID, sender.Name, reviewID, commentID)
		if err != nil {
			app.logger.Errorw("sending mention push failed", "recipient_id", recipientID, "error", err)
		}
	}
}

// editCommentHandler godoc
//
//	@Summary		Edit a comment
//	@Description	Edits the text of the caller's own comment
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int					true	"Review ID"
//	@Param			commentID	path		string				true	"Comment ID"
//	@Param			payload		body		EditCommentPayload	true	"New text"
//	@Success		200			{object}	comments.Comment
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error	"Not the comment author"
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/comments/{commentID} [patch]
func (app *application) editCommentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := app.reviewIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	commentID := chi.URLParam(r, "commentID")

	var payload EditCommentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	comment, err := app.store.Reviews.EditComment(r.Context(), reviewID, commentID, user.ID, payload.Content)
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrEmptyContent):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, comments.ErrForbidden):
			app.forbiddenResponse(w, r, err)
		case errors.Is(err, comments.ErrNotFound), errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, comment); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteCommentHandler godoc
//
//	@Summary		Delete a comment
//	@Description	Deletes a comment (and, for a top-level comment, all its replies). Allowed for the comment author and the review author.
//	@Tags			comments
//	@Produce		json
//	@Param			reviewID	path		int		true	"Review ID"
//	@Param			commentID	path		string	true	"Comment ID"
//	@Success		204			{string}	string	"Comment deleted"
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error	"Neither comment nor review author"
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/comments/{commentID} [delete]
func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := app.reviewIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	commentID := chi.URLParam(r, "commentID")

	err = app.store.Reviews.DeleteComment(r.Context(), reviewID, commentID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrForbidden):
			app.forbiddenResponse(w, r, err)
		case errors.Is(err, comments.ErrNotFound), errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toggleCommentLikeHandler godoc
//
//	@Summary		Like or unlike a comment
//	@Tags			comments
//	@Produce		json
//	@Param			reviewID	path		int		true	"Review ID"
//	@Param			commentID	path		string	true	"Comment ID"
//	@Success		200			{object}	map[string]bool
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/comments/{commentID}/like [put]
func (app *application) toggleCommentLikeHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := app.reviewIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	commentID := chi.URLParam(r, "commentID")

	liked, err := app.store.Reviews.ToggleCommentLike(r.Context(), reviewID, commentID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrNotFound), errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]bool{"liked": liked}); err != nil {
		app.internalServerError(w, r, err)
	}
}
