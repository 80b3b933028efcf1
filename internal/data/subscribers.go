package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/newslyhq/newsly/internal/validator"
)

// Subscription statuses.
const (
	SubscriberPending   = "pending"
	SubscriberConfirmed = "confirmed"
)

// The Subscriber struct contains the data fields for a newsletter Subscriber.
type Subscriber struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	TokenHash []byte    `json:"-"`
	Version   int32     `json:"-"`
}

func ValidateSubscriber(v *validator.Validator, subscriber *Subscriber) {
	v.Check(subscriber.Email != "", "email", "must be provided")
	v.Check(validator.Matches(subscriber.Email, validator.EmailRX), "email", "must be a valid email address")
}

// The SubscriberModel struct wraps a sql.DB connection pool for Subscriber.
type SubscriberModel struct {
	DB *sql.DB
}

func (m SubscriberModel) Insert(subscriber *Subscriber) error {
	query := `
		INSERT INTO subscribers (email, status, token_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version`
	args := []interface{}{
		subscriber.Email,
		subscriber.Status,
		subscriber.TokenHash,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := m.DB.QueryRowContext(ctx, query, args...).Scan(&subscriber.ID, &subscriber.CreatedAt, &subscriber.Version)
	if err != nil {
		switch {
		case err.Error() == `pq: duplicate key value violates unique constraint "subscribers_email_key"`:
			return ErrDuplicateEmail
		default:
			return err
		}
	}
	return nil
}

// ConfirmByToken activates the subscription holding the given confirmation
// token hash.
func (m SubscriberModel) ConfirmByToken(tokenHash []byte) (*Subscriber, error) {
	query := `
		UPDATE subscribers
		SET status = $1, version = version + 1
		WHERE token_hash = $2
		RETURNING id, created_at, email, status, version`
	var subscriber Subscriber
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := m.DB.QueryRowContext(ctx, query, SubscriberConfirmed, tokenHash).Scan(
		&subscriber.ID,
		&subscriber.CreatedAt,
		&subscriber.Email,
		&subscriber.Status,
		&subscriber.Version,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &subscriber, nil
}

// DeleteByToken removes the subscription holding the given token hash.
func (m SubscriberModel) DeleteByToken(tokenHash []byte) error {
	query := `
		DELETE FROM subscribers
		WHERE token_hash = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	result, err := m.DB.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
