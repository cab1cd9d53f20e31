package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelnotes/internal/comments"
	"reelnotes/internal/sharecode"
	"reelnotes/internal/store"

	"github.com/9ssi7/exponent"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// reviewsStub satisfies the Reviews store interface with overridable
// behavior per test.
type reviewsStub struct {
	createCommentFn func(ctx context.Context, reviewID int64, author comments.Author, content, parentID string, mentions []int64) (*comments.Comment, error)
	editCommentFn   func(ctx context.Context, reviewID int64, commentID string, callerID int64, content string) (*comments.Comment, error)
	deleteCommentFn func(ctx context.Context, reviewID int64, commentID string, callerID int64) error
	toggleLikeFn    func(ctx context.Context, reviewID int64, commentID string, callerID int64) (bool, error)
	getByIDFn       func(ctx context.Context, reviewID int64) (*store.Review, error)
	ratingStatsFn   func(ctx context.Context, movieID string) (int, float64, error)
}

func (s *reviewsStub) Create(context.Context, *store.Review) error { return nil }
func (s *reviewsStub) GetByID(ctx context.Context, reviewID int64) (*store.Review, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, reviewID)
	}
	return nil, store.ErrNotFound
}
func (s *reviewsStub) ListByMovie(context.Context, string) ([]store.Review, error) { return nil, nil }
func (s *reviewsStub) ListByUser(context.Context, int64) ([]store.Review, error)   { return nil, nil }
func (s *reviewsStub) Update(context.Context, int64, int64, int, string) error     { return nil }
func (s *reviewsStub) Delete(context.Context, int64, int64) error                  { return nil }
func (s *reviewsStub) RatingStats(ctx context.Context, movieID string) (int, float64, error) {
	if s.ratingStatsFn != nil {
		return s.ratingStatsFn(ctx, movieID)
	}
	return 0, 0, nil
}
func (s *reviewsStub) ToggleLike(context.Context, int64, int64) (bool, error)      { return false, nil }
func (s *reviewsStub) CreateComment(ctx context.Context, reviewID int64, author comments.Author, content, parentID string, mentions []int64) (*comments.Comment, error) {
	return s.createCommentFn(ctx, reviewID, author, content, parentID, mentions)
}
func (s *reviewsStub) EditComment(ctx context.Context, reviewID int64, commentID string, callerID int64, content string) (*comments.Comment, error) {
	return s.editCommentFn(ctx, reviewID, commentID, callerID, content)
}
func (s *reviewsStub) DeleteComment(ctx context.Context, reviewID int64, commentID string, callerID int64) error {
	return s.deleteCommentFn(ctx, reviewID, commentID, callerID)
}
func (s *reviewsStub) ToggleCommentLike(ctx context.Context, reviewID int64, commentID string, callerID int64) (bool, error) {
	return s.toggleLikeFn(ctx, reviewID, commentID, callerID)
}

type usersStub struct {
	resolveHandlesFn func(ctx context.Context, handles []string) (map[string]int64, error)
}

func (s *usersStub) Create(context.Context, pgx.Tx, *store.User) error { return nil }
func (s *usersStub) CreateAndInvite(context.Context, *store.User, string, time.Duration) error {
	return nil
}
func (s *usersStub) Activate(context.Context, string) error               { return nil }
func (s *usersStub) Delete(context.Context, int64) error                  { return nil }
func (s *usersStub) GetByID(context.Context, int64) (*store.User, error)  { return nil, store.ErrNotFound }
func (s *usersStub) GetByEmail(context.Context, string) (*store.User, error) {
	return nil, store.ErrNotFound
}
func (s *usersStub) GetByHandle(context.Context, string) (*store.User, error) {
	return nil, store.ErrNotFound
}
func (s *usersStub) ResolveHandles(ctx context.Context, handles []string) (map[string]int64, error) {
	if s.resolveHandlesFn != nil {
		return s.resolveHandlesFn(ctx, handles)
	}
	return map[string]int64{}, nil
}
func (s *usersStub) SetAvatar(context.Context, string, int64) error { return nil }
func (s *usersStub) UpdateResetToken(context.Context, string, string, time.Time) error {
	return nil
}
func (s *usersStub) ResetPassword(context.Context, string, []byte) error         { return nil }
func (s *usersStub) SaveRefreshToken(context.Context, int64, string) error       { return nil }
func (s *usersStub) GetRefreshToken(context.Context, int64) (string, error)      { return "", nil }
func (s *usersStub) DeleteRefreshToken(context.Context, int64) error             { return nil }

// notificationsStub records every created row so tests can observe the
// fire-and-forget mention fan-out.
type notificationsStub struct {
	created chan store.Notification
}

func (s *notificationsStub) Create(_ context.Context, n *store.Notification) error {
	if s.created != nil {
		s.created <- *n
	}
	return nil
}
func (s *notificationsStub) ListByRecipient(context.Context, int64) ([]store.Notification, error) {
	return nil, nil
}
func (s *notificationsStub) MarkRead(context.Context, int64, int64) error { return nil }

type pushTokensStub struct{}

func (pushTokensStub) Save(context.Context, int64, string) error   { return nil }
func (pushTokensStub) Delete(context.Context, int64, string) error { return nil }
func (pushTokensStub) GetTokensByUserIDs(context.Context, []int64) (map[int64][]string, error) {
	return map[int64][]string{}, nil
}

type pushStub struct{}

func (pushStub) Publish(context.Context, []*exponent.Message) ([]*exponent.MessageResponse, error) {
	return nil, nil
}

func newTestApp(t *testing.T, reviews *reviewsStub, users *usersStub) (*application, *notificationsStub) {
	t.Helper()

	if users == nil {
		users = &usersStub{}
	}

	codec, err := sharecode.NewCodec("test-salt", 8)
	require.NoError(t, err)

	notifs := &notificationsStub{created: make(chan store.Notification, 8)}

	return &application{
		logger: zap.NewNop().Sugar(),
		store: store.Storage{
			Reviews:       reviews,
			Users:         users,
			Notifications: notifs,
			PushTokens:    pushTokensStub{},
		},
		push:       pushStub{},
		shareCodes: codec,
	}, notifs
}

// asUser injects an authenticated user the way the auth middleware does.
func asUser(r *http.Request, user *store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userCtx, user))
}

func newCommentRouter(app *application, user *store.User) http.Handler {
	r := chi.NewRouter()
	r.Route("/v1/reviews/{reviewID}", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, asUser(req, user))
			})
		})
		r.Post("/comments", app.createCommentHandler)
		r.Patch("/comments/{commentID}", app.editCommentHandler)
		r.Delete("/comments/{commentID}", app.deleteCommentHandler)
		r.Put("/comments/{commentID}/like", app.toggleCommentLikeHandler)
	})
	return r
}

func TestCreateCommentHandler(t *testing.T) {
	caller := &store.User{ID: 7, Name: "Dana", Handle: "dana"}

	var gotParent string
	var gotMentions []int64
	reviews := &reviewsStub{
		createCommentFn: func(_ context.Context, reviewID int64, author comments.Author, content, parentID string, mentions []int64) (*comments.Comment, error) {
			assert.Equal(t, int64(42), reviewID)
			assert.Equal(t, caller.ID, author.ID)
			gotParent = parentID
			gotMentions = mentions
			return &comments.Comment{ID: "c-1", ParentID: parentID, Author: author, Content: content}, nil
		},
	}
	users := &usersStub{
		resolveHandlesFn: func(_ context.Context, handles []string) (map[string]int64, error) {
			assert.Equal(t, []string{"carol"}, handles)
			return map[string]int64{"carol": 11}, nil
		},
	}

	app, notifs := newTestApp(t, reviews, users)
	router := newCommentRouter(app, caller)

	body := bytes.NewBufferString(`{"content":"agreed @carol","parent_id":"top-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/reviews/42/comments", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "top-1", gotParent)
	assert.Equal(t, []int64{11}, gotMentions)

	var resp struct {
		Data comments.Comment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "c-1", resp.Data.ID)

	// The mention fan-out runs in its own goroutine; wait for the row.
	select {
	case n := <-notifs.created:
		assert.Equal(t, int64(11), n.RecipientID)
		assert.Equal(t, caller.ID, n.SenderID)
		assert.Equal(t, store.KindMention, n.Kind)
		assert.Equal(t, int64(42), n.ReviewID)
		assert.Equal(t, "c-1", n.CommentID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a mention notification to be created")
	}
}

func TestCreateCommentHandlerEmptyContent(t *testing.T) {
	app, _ := newTestApp(t, &reviewsStub{}, nil)
	router := newCommentRouter(app, &store.User{ID: 7})

	req := httptest.NewRequest(http.MethodPost, "/v1/reviews/42/comments", bytes.NewBufferString(`{"content":""}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCommentHandlerParentMissing(t *testing.T) {
	reviews := &reviewsStub{
		createCommentFn: func(context.Context, int64, comments.Author, string, string, []int64) (*comments.Comment, error) {
			return nil, comments.ErrNotFound
		},
	}
	app, _ := newTestApp(t, reviews, nil)
	router := newCommentRouter(app, &store.User{ID: 7})

	req := httptest.NewRequest(http.MethodPost, "/v1/reviews/42/comments", bytes.NewBufferString(`{"content":"hi","parent_id":"missing"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditCommentHandlerForbidden(t *testing.T) {
	reviews := &reviewsStub{
		editCommentFn: func(context.Context, int64, string, int64, string) (*comments.Comment, error) {
			return nil, comments.ErrForbidden
		},
	}
	app, _ := newTestApp(t, reviews, nil)
	router := newCommentRouter(app, &store.User{ID: 9})

	req := httptest.NewRequest(http.MethodPatch, "/v1/reviews/42/comments/c-1", bytes.NewBufferString(`{"content":"edited"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteCommentHandlerConflict(t *testing.T) {
	reviews := &reviewsStub{
		deleteCommentFn: func(context.Context, int64, string, int64) error {
			return store.ErrConflict
		},
	}
	app, _ := newTestApp(t, reviews, nil)
	router := newCommentRouter(app, &store.User{ID: 9})

	req := httptest.NewRequest(http.MethodDelete, "/v1/reviews/42/comments/c-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteCommentHandlerSuccess(t *testing.T) {
	var calledWith string
	reviews := &reviewsStub{
		deleteCommentFn: func(_ context.Context, _ int64, commentID string, callerID int64) error {
			calledWith = commentID
			assert.Equal(t, int64(9), callerID)
			return nil
		},
	}
	app, _ := newTestApp(t, reviews, nil)
	router := newCommentRouter(app, &store.User{ID: 9})

	req := httptest.NewRequest(http.MethodDelete, "/v1/reviews/42/comments/c-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "c-1", calledWith)
}

func TestToggleCommentLikeHandler(t *testing.T) {
	reviews := &reviewsStub{
		toggleLikeFn: func(context.Context, int64, string, int64) (bool, error) {
			return true, nil
		},
	}
	app, _ := newTestApp(t, reviews, nil)
	router := newCommentRouter(app, &store.User{ID: 9})

	req := httptest.NewRequest(http.MethodPut, "/v1/reviews/42/comments/c-1/like", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]bool `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data["liked"])
}

func TestGetSharedReviewHandler(t *testing.T) {
	codec, err := sharecode.NewCodec("test-salt", 8)
	require.NoError(t, err)
	code, err := codec.Encode(42)
	require.NoError(t, err)

	reviews := &reviewsStub{
		getByIDFn: func(_ context.Context, reviewID int64) (*store.Review, error) {
			assert.Equal(t, int64(42), reviewID)
			return &store.Review{ID: reviewID, MovieID: "tt0111161", Rating: 5}, nil
		},
	}
	app, _ := newTestApp(t, reviews, nil)

	r := chi.NewRouter()
	r.Get("/v1/reviews/shared/{code}", app.getSharedReviewHandler)

	req := httptest.NewRequest(http.MethodGet, "/v1/reviews/shared/"+code, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data store.Review `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.Data.ID)
	assert.Equal(t, code, resp.Data.ShareCode)
}

func TestGetSharedReviewHandlerBadCode(t *testing.T) {
	app, _ := newTestApp(t, &reviewsStub{}, nil)

	r := chi.NewRouter()
	r.Get("/v1/reviews/shared/{code}", app.getSharedReviewHandler)

	req := httptest.NewRequest(http.MethodGet, "/v1/reviews/shared/not-a-code", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
