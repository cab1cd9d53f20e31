package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reelnotes/internal/comments"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// A review owns its comment tree: the tree lives in a jsonb column on the
// review row and every comment mutation is one UPDATE of that row, guarded
// by a version column. The single-row write is what makes a comment
// mutation atomic; there is no cross-row locking anywhere in this store.
const maxCASAttempts = 3

var ErrDuplicateReview = errors.New("you have already reviewed this movie")

type Review struct {
	ID                int64         `json:"id"`
	MovieID           string        `json:"movie_id"`
	MovieTitle        string        `json:"movie_title"`
	MoviePoster       string        `json:"movie_poster,omitempty"`
	UserID            int64         `json:"user_id"`
	Rating            int           `json:"rating"` // 1-5
	Content           string        `json:"content"`
	Comments          comments.Tree `json:"comments"`
	CommentCount      int           `json:"comment_count"`
	LikeCount         int           `json:"like_count"`
	CommentsChangedAt time.Time     `json:"comments_changed_at"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	// Joined fields
	UserName   string `json:"user_name,omitempty"`
	UserHandle string `json:"user_handle,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`

	// Derived by the API layer, never stored.
	ShareCode string `json:"share_code,omitempty"`
}

type ReviewsStore struct {
	db *pgxpool.Pool
}

// Create inserts the review and bumps the author's review counter in the
// same transaction. One review per user per movie.
func (s *ReviewsStore) Create(ctx context.Context, review *Review) error {
	return withTx(s.db, ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO reviews (movie_id, movie_title, movie_poster, user_id, rating, content, comments)
			VALUES ($1, $2, $3, $4, $5, $6, '[]'::jsonb)
			RETURNING id, created_at, updated_at, comments_changed_at
		`

		ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
		defer cancel()

		err := tx.QueryRow(ctx, query,
			review.MovieID,
			review.MovieTitle,
			review.MoviePoster,
			review.UserID,
			review.Rating,
			review.Content,
		).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt, &review.CommentsChangedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrDuplicateReview
			}
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE users SET review_count = review_count + 1 WHERE id = $1`, review.UserID)
		return err
	})
}

func (s *ReviewsStore) GetByID(ctx context.Context, reviewID int64) (*Review, error) {
	query := `
		SELECT r.id, r.movie_id, r.movie_title, r.movie_poster, r.user_id, r.rating, r.content,
		       r.comments, r.comment_count, r.comments_changed_at, r.created_at, r.updated_at,
		       u.name, u.handle, u.avatar_url,
		       (SELECT COUNT(*) FROM review_likes rl WHERE rl.review_id = r.id)
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	review := &Review{}
	var rawTree []byte
	err := s.db.QueryRow(ctx, query, reviewID).Scan(
		&review.ID,
		&review.MovieID,
		&review.MovieTitle,
		&review.MoviePoster,
		&review.UserID,
		&review.Rating,
		&review.Content,
		&rawTree,
		&review.CommentCount,
		&review.CommentsChangedAt,
		&review.CreatedAt,
		&review.UpdatedAt,
		&review.UserName,
		&review.UserHandle,
		&review.AvatarURL,
		&review.LikeCount,
	)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	if err := json.Unmarshal(rawTree, &review.Comments); err != nil {
		return nil, fmt.Errorf("decode comment tree for review %d: %w", reviewID, err)
	}
	return review, nil
}

func (s *ReviewsStore) ListByMovie(ctx context.Context, movieID string) ([]Review, error) {
	query := `
		SELECT r.id, r.movie_id, r.movie_title, r.movie_poster, r.user_id, r.rating, r.content,
		       r.comment_count, r.created_at, r.updated_at, u.name, u.handle, u.avatar_url,
		       (SELECT COUNT(*) FROM review_likes rl WHERE rl.review_id = r.id)
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.movie_id = $1
		ORDER BY r.created_at DESC
	`
	return s.list(ctx, query, movieID)
}

func (s *ReviewsStore) ListByUser(ctx context.Context, userID int64) ([]Review, error) {
	query := `
		SELECT r.id, r.movie_id, r.movie_title, r.movie_poster, r.user_id, r.rating, r.content,
		       r.comment_count, r.created_at, r.updated_at, u.name, u.handle, u.avatar_url,
		       (SELECT COUNT(*) FROM review_likes rl WHERE rl.review_id = r.id)
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC
	`
	return s.list(ctx, query, userID)
}

func (s *ReviewsStore) list(ctx context.Context, query string, arg any) ([]Review, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var review Review
		err := rows.Scan(
			&review.ID,
			&review.MovieID,
			&review.MovieTitle,
			&review.MoviePoster,
			&review.UserID,
			&review.Rating,
			&review.Content,
			&review.CommentCount,
			&review.CreatedAt,
			&review.UpdatedAt,
			&review.UserName,
			&review.UserHandle,
			&review.AvatarURL,
			&review.LikeCount,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// Update changes content and rating. The WHERE clause carries the
// ownership check: touching someone else's review affects zero rows.
func (s *ReviewsStore) Update(ctx context.Context, reviewID, userID int64, rating int, content string) error {
	query := `
		UPDATE reviews
		SET rating = $1, content = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, rating, content, reviewID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the review and decrements the author's review counter
// in one transaction.
func (s *ReviewsStore) Delete(ctx context.Context, reviewID, userID int64) error {
	return withTx(s.db, ctx, func(tx pgx.Tx) error {
		ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
		defer cancel()

		tag, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1 AND user_id = $2`, reviewID, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		_, err = tx.Exec(ctx, `UPDATE users SET review_count = GREATEST(review_count - 1, 0) WHERE id = $1`, userID)
		return err
	})
}

// RatingStats derives the aggregate from the full review set every time,
// never incrementally, so it self-corrects from any prior inconsistency.
func (s *ReviewsStore) RatingStats(ctx context.Context, movieID string) (int, float64, error) {
	query := `
		SELECT COUNT(id), COALESCE(AVG(rating), 0)
		FROM reviews
		WHERE movie_id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var count int
	var average float64
	err := s.db.QueryRow(ctx, query, movieID).Scan(&count, &average)
	return count, average, err
}

func (s *ReviewsStore) ToggleLike(ctx context.Context, reviewID, userID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx,
		`DELETE FROM review_likes WHERE review_id = $1 AND user_id = $2`, reviewID, userID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO review_likes (review_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		reviewID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, ErrNotFound
		}
		return false, err
	}
	return true, nil
}

// mutateTree runs one read-mutate-write cycle over a review's comment
// tree. fn gets the decoded tree and the review author's id and returns
// whether the review-level comments_changed_at timestamp should bump.
// The write is a compare-and-swap on the version column; on a version
// miss the whole cycle reruns against fresh state, up to maxCASAttempts.
// That retry resolves concurrent-writer interleaving only; errors from
// fn abort immediately and are never retried.
func (s *ReviewsStore) mutateTree(ctx context.Context, reviewID int64, fn func(tree *comments.Tree, reviewAuthorID int64) (bumpChanged bool, err error)) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		qctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)

		var (
			rawTree  []byte
			authorID int64
			version  int64
		)
		err := s.db.QueryRow(qctx,
			`SELECT user_id, comments, version FROM reviews WHERE id = $1`, reviewID,
		).Scan(&authorID, &rawTree, &version)
		if err != nil {
			cancel()
			if err == pgx.ErrNoRows {
				return ErrNotFound
			}
			return err
		}

		var tree comments.Tree
		if err := json.Unmarshal(rawTree, &tree); err != nil {
			cancel()
			return fmt.Errorf("decode comment tree for review %d: %w", reviewID, err)
		}

		bumpChanged, err := fn(&tree, authorID)
		if err != nil {
			cancel()
			return err
		}

		encoded, err := json.Marshal(tree)
		if err != nil {
			cancel()
			return fmt.Errorf("encode comment tree for review %d: %w", reviewID, err)
		}

		tag, err := s.db.Exec(qctx, `
			UPDATE reviews
			SET comments = $1,
			    comment_count = $2,
			    comments_changed_at = CASE WHEN $3 THEN NOW() ELSE comments_changed_at END,
			    version = version + 1
			WHERE id = $4 AND version = $5
		`, encoded, tree.Len(), bumpChanged, reviewID, version)
		cancel()
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
		// version moved under us; reload and reapply
	}
	return ErrConflict
}

// CreateComment adds a top-level comment or a reply. The returned node
// carries the generated id.
func (s *ReviewsStore) CreateComment(ctx context.Context, reviewID int64, author comments.Author, content, parentID string, mentions []int64) (*comments.Comment, error) {
	var created comments.Comment
	err := s.mutateTree(ctx, reviewID, func(tree *comments.Tree, _ int64) (bool, error) {
		node, err := comments.New(author, content, mentions, time.Now().UTC())
		if err != nil {
			return false, err
		}
		if err := tree.Insert(node, parentID); err != nil {
			return false, err
		}
		created = node
		created.ParentID = parentID
		return parentID == "", nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *ReviewsStore) EditComment(ctx context.Context, reviewID int64, commentID string, callerID int64, content string) (*comments.Comment, error) {
	var edited comments.Comment
	err := s.mutateTree(ctx, reviewID, func(tree *comments.Tree, _ int64) (bool, error) {
		node, err := tree.Edit(commentID, callerID, content, time.Now().UTC())
		if err != nil {
			return false, err
		}
		edited = *node
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return &edited, nil
}

func (s *ReviewsStore) DeleteComment(ctx context.Context, reviewID int64, commentID string, callerID int64) error {
	return s.mutateTree(ctx, reviewID, func(tree *comments.Tree, reviewAuthorID int64) (bool, error) {
		_, err := tree.Delete(commentID, callerID, reviewAuthorID)
		return err == nil, err
	})
}

func (s *ReviewsStore) ToggleCommentLike(ctx context.Context, reviewID int64, commentID string, callerID int64) (bool, error) {
	var liked bool
	err := s.mutateTree(ctx, reviewID, func(tree *comments.Tree, _ int64) (bool, error) {
		var err error
		liked, err = tree.ToggleLike(commentID, callerID)
		return false, err
	})
	return liked, err
}
