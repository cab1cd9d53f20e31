package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSelfFollow = errors.New("you can't follow yourself")

type FollowEntry struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Handle    string `json:"handle"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

type FollowerStore struct {
	db *pgxpool.Pool
}

func (s *FollowerStore) Follow(ctx context.Context, followerID, userID int64) error {
	if followerID == userID {
		return ErrSelfFollow
	}

	query := `
		INSERT INTO followers (user_id, follower_id) VALUES ($1, $2)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query, userID, followerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("failed to follow user: %w", err)
	}
	return nil
}

func (s *FollowerStore) Unfollow(ctx context.Context, followerID, userID int64) error {
	query := `
		DELETE FROM followers
		WHERE user_id = $1 AND follower_id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query, userID, followerID)
	return err
}

func (s *FollowerStore) ListFollowers(ctx context.Context, userID int64) ([]FollowEntry, error) {
	query := `
		SELECT u.id, u.name, u.handle, u.avatar_url, f.created_at
		FROM followers f
		JOIN users u ON u.id = f.follower_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`
	return s.listEntries(ctx, query, userID)
}

func (s *FollowerStore) ListFollowing(ctx context.Context, userID int64) ([]FollowEntry, error) {
	query := `
		SELECT u.id, u.name, u.handle, u.avatar_url, f.created_at
		FROM followers f
		JOIN users u ON u.id = f.user_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
	`
	return s.listEntries(ctx, query, userID)
}

func (s *FollowerStore) listEntries(ctx context.Context, query string, userID int64) ([]FollowEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []FollowEntry
	for rows.Next() {
		var e FollowEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.Handle, &e.AvatarURL, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *FollowerStore) Counts(ctx context.Context, userID int64) (int, int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM followers WHERE user_id = $1),
			(SELECT COUNT(*) FROM followers WHERE follower_id = $1)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var followers, following int
	err := s.db.QueryRow(ctx, query, userID).Scan(&followers, &following)
	return followers, following, err
}
