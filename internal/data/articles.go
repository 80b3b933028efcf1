package data

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// The Article struct contains the data fields for an Article.
type Article struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content,omitempty"`
	Status    string    `json:"status"`
	ImageURL  string    `json:"image_url,omitempty"`
	Version   int32     `json:"-"`
}

// The ArticleModel struct wraps a sql.DB connection pool for Article.
type ArticleModel struct {
	DB *sql.DB
}

func (m ArticleModel) Get(id int64) (*Article, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}
	query := `
		SELECT id, created_at, title, slug, content, status, COALESCE(image_url, ''), version
		FROM articles
		WHERE id = $1`
	var article Article
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := m.DB.QueryRowContext(ctx, query, id).Scan(
		&article.ID,
		&article.CreatedAt,
		&article.Title,
		&article.Slug,
		&article.Content,
		&article.Status,
		&article.ImageURL,
		&article.Version,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &article, nil
}

// SetImage records the URL of an article's uploaded image. The version check
// prevents two concurrent uploads from silently clobbering each other.
func (m ArticleModel) SetImage(article *Article) error {
	query := `
		UPDATE articles
		SET image_url = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version`
	args := []interface{}{
		article.ImageURL,
		article.ID,
		article.Version,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := m.DB.QueryRowContext(ctx, query, args...).Scan(&article.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return err
		}
	}
	return nil
}
