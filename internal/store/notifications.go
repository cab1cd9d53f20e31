package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const KindMention = "mention"

// Notification is the persisted record of a social event. Delivery (push)
// is layered on top and may fail independently; the row is the source of
// truth for the in-app notification list.
type Notification struct {
	ID          int64     `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	SenderID    int64     `json:"sender_id"`
	Kind        string    `json:"kind"`
	ReviewID    int64     `json:"review_id,omitempty"`
	CommentID   string    `json:"comment_id,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`

	// Joined fields
	SenderName   string `json:"sender_name,omitempty"`
	SenderHandle string `json:"sender_handle,omitempty"`
}

type NotificationsStore struct {
	db *pgxpool.Pool
}

func (s *NotificationsStore) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, sender_id, kind, review_id, comment_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		n.RecipientID, n.SenderID, n.Kind, n.ReviewID, n.CommentID,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *NotificationsStore) ListByRecipient(ctx context.Context, recipientID int64) ([]Notification, error) {
	query := `
		SELECT n.id, n.recipient_id, n.sender_id, n.kind, n.review_id, n.comment_id, n.read,
		       n.created_at, u.name, u.handle
		FROM notifications n
		JOIN users u ON u.id = n.sender_id
		WHERE n.recipient_id = $1
		ORDER BY n.created_at DESC
		LIMIT 100
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		err := rows.Scan(
			&n.ID, &n.RecipientID, &n.SenderID, &n.Kind, &n.ReviewID, &n.CommentID,
			&n.Read, &n.CreatedAt, &n.SenderName, &n.SenderHandle,
		)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *NotificationsStore) MarkRead(ctx context.Context, notificationID, recipientID int64) error {
	query := `
		UPDATE notifications SET read = true
		WHERE id = $1 AND recipient_id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, notificationID, recipientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type PushTokensStore struct {
	db *pgxpool.Pool
}

func (s *PushTokensStore) Save(ctx context.Context, userID int64, token string) error {
	query := `
		INSERT INTO push_tokens (user_id, token)
		VALUES ($1, $2)
		ON CONFLICT (user_id, token) DO NOTHING
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query, userID, token)
	return err
}

func (s *PushTokensStore) Delete(ctx context.Context, userID int64, token string) error {
	query := `DELETE FROM push_tokens WHERE user_id = $1 AND token = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query, userID, token)
	return err
}

func (s *PushTokensStore) GetTokensByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	if len(userIDs) == 0 {
		return map[int64][]string{}, nil
	}

	query := `SELECT user_id, token FROM push_tokens WHERE user_id = ANY($1)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make(map[int64][]string, len(userIDs))
	for rows.Next() {
		var userID int64
		var token string
		if err := rows.Scan(&userID, &token); err != nil {
			return nil, err
		}
		tokens[userID] = append(tokens[userID], token)
	}
	return tokens, rows.Err()
}
