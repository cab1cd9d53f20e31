package main

import (
	"errors"
	"net/http"
	"strconv"

	"reelnotes/internal/store"

	"github.com/go-chi/chi/v5"
)

// listNotificationsHandler godoc
//
//	@Summary		List the caller's notifications
//	@Description	Lists the caller's most recent notifications, newest first
//	@Tags			notifications
//	@Produce		json
//	@Success		200	{array}		store.Notification
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/me/notifications [get]
func (app *application) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	notifications, err := app.store.Notifications.ListByRecipient(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, notifications); err != nil {
		app.internalServerError(w, r, err)
	}
}

// markNotificationReadHandler godoc
//
//	@Summary		Mark a notification as read
//	@Tags			notifications
//	@Produce		json
//	@Param			notificationID	path		int		true	"Notification ID"
//	@Success		204				{string}	string	"Marked read"
//	@Failure		400				{object}	error
//	@Failure		404				{object}	error	"Not found or not yours"
//	@Security		ApiKeyAuth
//	@Router			/me/notifications/{notificationID}/read [put]
func (app *application) markNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	notificationID, err := strconv.ParseInt(chi.URLParam(r, "notificationID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Notifications.MarkRead(r.Context(), notificationID, user.ID); err != nil {
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
