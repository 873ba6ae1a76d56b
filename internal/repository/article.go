package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/inkpost/inkpost/internal/model"
)

// Common errors for article repository operations.
var (
	ErrArticleNotFound = errors.New("article not found")
)

const articleColumns = `id, title, content, created_at, updated_at`

// CreateArticle inserts a new article and fills in its store-assigned fields.
func (r *Repository) CreateArticle(ctx context.Context, article *model.Article) error {
	query := `
		INSERT INTO articles (title, content)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, article.Title, article.Content).Scan(
		&article.ID,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}

	return nil
}

// ListArticles returns every article ordered by ID.
// Returns an empty slice when there are none.
func (r *Repository) ListArticles(ctx context.Context) ([]*model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := make([]*model.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	return articles, nil
}

// GetArticleByID retrieves an article by its ID.
func (r *Repository) GetArticleByID(ctx context.Context, id int64) (*model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`

	article, err := scanArticle(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to get article by ID: %w", err)
	}

	return article, nil
}

// DeleteArticle removes an article.
// Deleting an ID that does not exist is a no-op.
func (r *Repository) DeleteArticle(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return nil
}

// UpdateArticle loads the article with a row lock, applies mutate and writes
// the result back, all in one transaction. Concurrent updates to the same ID
// are serialized by the lock.
func (r *Repository) UpdateArticle(ctx context.Context, id int64, mutate func(*model.Article) error) (*model.Article, error) {
	var updated *model.Article

	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1 FOR UPDATE`

		article, err := scanArticle(tx.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrArticleNotFound
			}
			return fmt.Errorf("failed to lock article: %w", err)
		}

		if err := mutate(article); err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			UPDATE articles
			SET title = $2, content = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`, article.ID, article.Title, article.Content).Scan(&article.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update article: %w", err)
		}

		updated = article
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// scanArticle scans a single row into an Article.
func scanArticle(row pgx.Row) (*model.Article, error) {
	var article model.Article
	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Content,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &article, nil
}
