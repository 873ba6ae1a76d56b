// Package memstore provides in-memory article and account stores for tests.
// Errors match the repository sentinels so services map them the same way.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/repository"
)

// Articles is an in-memory article store.
type Articles struct {
	mu       sync.Mutex
	nextID   int64
	articles map[int64]model.Article
	// Err, when set, is returned by every call.
	Err error
}

// NewArticles creates an empty article store.
func NewArticles() *Articles {
	return &Articles{articles: make(map[int64]model.Article)}
}

// CreateArticle stores a copy of article and assigns its ID.
func (s *Articles) CreateArticle(ctx context.Context, article *model.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	s.nextID++
	now := time.Now().UTC()
	article.ID = s.nextID
	article.CreatedAt = now
	article.UpdatedAt = now
	s.articles[article.ID] = *article
	return nil
}

// ListArticles returns copies of all articles ordered by ID.
func (s *Articles) ListArticles(ctx context.Context) ([]*model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	out := make([]*model.Article, 0, len(s.articles))
	for _, a := range s.articles {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetArticleByID returns a copy of the article.
func (s *Articles) GetArticleByID(ctx context.Context, id int64) (*model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	a, ok := s.articles[id]
	if !ok {
		return nil, repository.ErrArticleNotFound
	}
	return &a, nil
}

// DeleteArticle removes the article if present.
func (s *Articles) DeleteArticle(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	delete(s.articles, id)
	return nil
}

// UpdateArticle applies mutate under the store lock.
func (s *Articles) UpdateArticle(ctx context.Context, id int64, mutate func(*model.Article) error) (*model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	a, ok := s.articles[id]
	if !ok {
		return nil, repository.ErrArticleNotFound
	}
	if err := mutate(&a); err != nil {
		return nil, err
	}
	a.ID = id
	a.UpdatedAt = time.Now().UTC()
	s.articles[id] = a
	return &a, nil
}

// Len returns the number of stored articles.
func (s *Articles) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles)
}

// Accounts is an in-memory account store.
type Accounts struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]model.Account
	// Err, when set, is returned by every call.
	Err error
}

// NewAccounts creates an empty account store.
func NewAccounts() *Accounts {
	return &Accounts{accounts: make(map[int64]model.Account)}
}

// CreateAccount stores a copy of account, enforcing unique emails.
func (s *Accounts) CreateAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return repository.ErrEmailExists
		}
	}

	s.nextID++
	account.ID = s.nextID
	account.CreatedAt = time.Now().UTC()
	s.accounts[account.ID] = *account
	return nil
}

// GetAccountByID returns a copy of the account.
func (s *Accounts) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	a, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return &a, nil
}

// GetAccountByEmail returns a copy of the account with the given email.
func (s *Accounts) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	for _, a := range s.accounts {
		if a.Email == email {
			a := a
			return &a, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}
