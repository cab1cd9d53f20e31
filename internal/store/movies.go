package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Movie is a locally cached copy of a catalog record, keyed by the
// external catalog id (e.g. tt0111161). Aggregate rating columns are
// derived from the reviews table and rewritten wholesale on every
// recomputation.
type Movie struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Year        string    `json:"year,omitempty"`
	PosterURL   string    `json:"poster_url,omitempty"`
	Plot        string    `json:"plot,omitempty"`
	Genres      []string  `json:"genres,omitempty"`
	AvgRating   float64   `json:"avg_rating"`
	RatingCount int       `json:"rating_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MoviesStore struct {
	db *pgxpool.Pool
}

func (s *MoviesStore) GetByID(ctx context.Context, movieID string) (*Movie, error) {
	query := `
		SELECT id, title, year, poster_url, plot, genres, avg_rating, rating_count, created_at, updated_at
		FROM movies
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	movie := &Movie{}
	err := s.db.QueryRow(ctx, query, movieID).Scan(
		&movie.ID,
		&movie.Title,
		&movie.Year,
		&movie.PosterURL,
		&movie.Plot,
		&movie.Genres,
		&movie.AvgRating,
		&movie.RatingCount,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}
	return movie, nil
}

// Upsert caches catalog metadata locally. Aggregate rating columns are
// left untouched on conflict so a metadata refresh never clobbers them.
func (s *MoviesStore) Upsert(ctx context.Context, movie *Movie) error {
	query := `
		INSERT INTO movies (id, title, year, poster_url, plot, genres)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			year = EXCLUDED.year,
			poster_url = EXCLUDED.poster_url,
			plot = EXCLUDED.plot,
			genres = EXCLUDED.genres,
			updated_at = NOW()
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query,
		movie.ID,
		movie.Title,
		movie.Year,
		movie.PosterURL,
		movie.Plot,
		movie.Genres,
	)
	if err != nil {
		return fmt.Errorf("upsert movie %s: %w", movie.ID, err)
	}
	return nil
}

// UpsertAggregateRating writes the freshly derived mean and count onto
// the movie row, creating a stub row if the movie was never cached.
func (s *MoviesStore) UpsertAggregateRating(ctx context.Context, movieID string, average float64, count int) error {
	query := `
		INSERT INTO movies (id, title, avg_rating, rating_count)
		VALUES ($1, '', $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			avg_rating = EXCLUDED.avg_rating,
			rating_count = EXCLUDED.rating_count,
			updated_at = NOW()
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query, movieID, average, count)
	if err != nil {
		return fmt.Errorf("upsert aggregate rating for %s: %w", movieID, err)
	}
	return nil
}
