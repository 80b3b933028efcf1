package data

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// AnonymousUser represents a caller presenting no credentials.
var AnonymousUser = &User{}

// The User struct contains the data fields for a User. Account creation and
// token issuance live in a separate identity service; this application only
// resolves tokens to users.
type User struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Activated bool      `json:"activated"`
	Version   int32     `json:"-"`
}

// IsAnonymous checks if a user instance is the anonymous user.
func (u *User) IsAnonymous() bool {
	return u == AnonymousUser
}

// The UserModel struct wraps a sql.DB connection pool for User.
type UserModel struct {
	DB *sql.DB
}

// GetForToken retrieves the user holding an unexpired token with the given
// scope and plaintext.
func (m UserModel) GetForToken(scope, tokenPlaintext string) (*User, error) {
	tokenHash := HashToken(tokenPlaintext)
	query := `
		SELECT users.id, users.created_at, users.name, users.email, users.activated, users.version
		FROM users
		INNER JOIN tokens ON tokens.user_id = users.id
		WHERE tokens.hash = $1
		AND tokens.scope = $2
		AND tokens.expiry > $3`
	args := []interface{}{tokenHash, scope, time.Now()}
	var user User
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := m.DB.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.CreatedAt,
		&user.Name,
		&user.Email,
		&user.Activated,
		&user.Version,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &user, nil
}
