// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"

	"github.com/inkpost/inkpost/internal/model"
)

// Service errors.
var (
	ErrArticleNotFound    = errors.New("article not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ArticleStore persists articles.
type ArticleStore interface {
	CreateArticle(ctx context.Context, article *model.Article) error
	ListArticles(ctx context.Context) ([]*model.Article, error)
	GetArticleByID(ctx context.Context, id int64) (*model.Article, error)
	DeleteArticle(ctx context.Context, id int64) error
	// UpdateArticle applies mutate to the stored article atomically.
	UpdateArticle(ctx context.Context, id int64, mutate func(*model.Article) error) (*model.Article, error)
}

// AccountStore persists accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
}

// PasswordHasher turns raw passwords into digests and verifies them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(password, digest string) (bool, error)
}
