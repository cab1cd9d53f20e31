package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListKind selects which per-user movie list an operation targets.
// Favorites and the watchlist share a schema, one table each.
type ListKind string

const (
	ListFavorites ListKind = "favorites"
	ListWatchlist ListKind = "watchlist"
)

func (k ListKind) table() (string, error) {
	switch k {
	case ListFavorites:
		return "favorite_movies", nil
	case ListWatchlist:
		return "watchlist_movies", nil
	default:
		return "", fmt.Errorf("unknown list kind %q", k)
	}
}

type ListsStore struct {
	db *pgxpool.Pool
}

// Add inserts a movie into the user's list. Re-adding is a no-op.
func (s *ListsStore) Add(ctx context.Context, kind ListKind, userID int64, movieID string) error {
	table, err := kind.table()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, movie_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, table)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err = s.db.Exec(ctx, query, userID, movieID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("failed to add to %s: %w", kind, err)
	}
	return nil
}

func (s *ListsStore) Remove(ctx context.Context, kind ListKind, userID int64, movieID string) error {
	table, err := kind.table()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1 AND movie_id = $2
	`, table)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err = s.db.Exec(ctx, query, userID, movieID)
	if err != nil {
		return fmt.Errorf("failed to remove from %s: %w", kind, err)
	}
	return nil
}

// MoviesFor returns the cached movie records on the user's list, newest
// addition first.
func (s *ListsStore) MoviesFor(ctx context.Context, kind ListKind, userID int64) ([]Movie, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT m.id, m.title, m.year, m.poster_url, m.plot, m.genres,
		       m.avg_rating, m.rating_count, m.created_at, m.updated_at
		FROM movies m
		JOIN %s l ON m.id = l.movie_id
		WHERE l.user_id = $1
		ORDER BY l.created_at DESC
	`, table)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	defer rows.Close()

	var movies []Movie
	for rows.Next() {
		var m Movie
		err := rows.Scan(
			&m.ID, &m.Title, &m.Year, &m.PosterURL, &m.Plot, &m.Genres,
			&m.AvgRating, &m.RatingCount, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}
