package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reelnotes/internal/comments"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		Create(context.Context, pgx.Tx, *User) error
		CreateAndInvite(ctx context.Context, user *User, token string, invitationExp time.Duration) error
		Activate(context.Context, string) error
		Delete(context.Context, int64) error
		GetByID(context.Context, int64) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		GetByHandle(context.Context, string) (*User, error)
		ResolveHandles(context.Context, []string) (map[string]int64, error)
		SetAvatar(ctx context.Context, url string, userID int64) error
		UpdateResetToken(ctx context.Context, email, resetToken string, resetTokenExpires time.Time) error
		ResetPassword(ctx context.Context, resetToken string, newHash []byte) error
		SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error
		GetRefreshToken(ctx context.Context, userID int64) (string, error)
		DeleteRefreshToken(ctx context.Context, userID int64) error
	}
	Movies interface {
		GetByID(context.Context, string) (*Movie, error)
		Upsert(context.Context, *Movie) error
		UpsertAggregateRating(ctx context.Context, movieID string, average float64, count int) error
	}
	Reviews interface {
		Create(context.Context, *Review) error
		GetByID(context.Context, int64) (*Review, error)
		ListByMovie(context.Context, string) ([]Review, error)
		ListByUser(context.Context, int64) ([]Review, error)
		Update(ctx context.Context, reviewID, userID int64, rating int, content string) error
		Delete(ctx context.Context, reviewID, userID int64) error
		RatingStats(ctx context.Context, movieID string) (count int, average float64, err error)
		ToggleLike(ctx context.Context, reviewID, userID int64) (liked bool, err error)
		CreateComment(ctx context.Context, reviewID int64, author comments.Author, content, parentID string, mentions []int64) (*comments.Comment, error)
		EditComment(ctx context.Context, reviewID int64, commentID string, callerID int64, content string) (*comments.Comment, error)
		DeleteComment(ctx context.Context, reviewID int64, commentID string, callerID int64) error
		ToggleCommentLike(ctx context.Context, reviewID int64, commentID string, callerID int64) (liked bool, err error)
	}
	Followers interface {
		Follow(ctx context.Context, followerID, userID int64) error
		Unfollow(ctx context.Context, followerID, userID int64) error
		ListFollowers(ctx context.Context, userID int64) ([]FollowEntry, error)
		ListFollowing(ctx context.Context, userID int64) ([]FollowEntry, error)
		Counts(ctx context.Context, userID int64) (followers int, following int, err error)
	}
	Lists interface {
		Add(ctx context.Context, kind ListKind, userID int64, movieID string) error
		Remove(ctx context.Context, kind ListKind, userID int64, movieID string) error
		MoviesFor(ctx context.Context, kind ListKind, userID int64) ([]Movie, error)
	}
	Notifications interface {
		Create(context.Context, *Notification) error
		ListByRecipient(ctx context.Context, recipientID int64) ([]Notification, error)
		MarkRead(ctx context.Context, notificationID, recipientID int64) error
	}
	PushTokens interface {
		Save(ctx context.Context, userID int64, token string) error
		Delete(ctx context.Context, userID int64, token string) error
		GetTokensByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]string, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:         &UsersStore{db},
		Movies:        &MoviesStore{db},
		Reviews:       &ReviewsStore{db},
		Followers:     &FollowerStore{db},
		Lists:         &ListsStore{db},
		Notifications: &NotificationsStore{db},
		PushTokens:    &PushTokensStore{db},
	}
}

func withTx(db *pgxpool.Pool, ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
