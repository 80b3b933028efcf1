package data

import (
	"database/sql"
	"errors"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrEditConflict   = errors.New("edit conflict")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// Models is a convenient single 'container' which holds and represents
// all database models for the application.
type Models struct {
	Articles    ArticleModel
	Subscribers SubscriberModel
	Users       UserModel
}

func NewModels(db *sql.DB) *Models {
	return &Models{
		Articles:    ArticleModel{DB: db},
		Subscribers: SubscriberModel{DB: db},
		Users:       UserModel{DB: db},
	}
}
