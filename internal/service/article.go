package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkpost/inkpost/internal/metrics"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/repository"
)

// ArticleService handles article business logic.
type ArticleService struct {
	store   ArticleStore
	metrics metrics.Recorder
}

// NewArticleService creates a new ArticleService.
func NewArticleService(store ArticleStore, recorder metrics.Recorder) *ArticleService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ArticleService{
		store:   store,
		metrics: recorder,
	}
}

// Create validates and persists a new article.
func (s *ArticleService) Create(ctx context.Context, title, content string) (*model.Article, error) {
	if err := ValidateArticle(title, content); err != nil {
		return nil, err
	}

	article := &model.Article{Title: title, Content: content}
	if err := s.store.CreateArticle(ctx, article); err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	s.metrics.IncArticleCreated()

	return article, nil
}

// List returns all articles ordered by ID. The result is never nil.
func (s *ArticleService) List(ctx context.Context) ([]*model.Article, error) {
	articles, err := s.store.ListArticles(ctx)
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []*model.Article{}
	}
	return articles, nil
}

// Get retrieves an article by ID.
func (s *ArticleService) Get(ctx context.Context, id int64) (*model.Article, error) {
	article, err := s.store.GetArticleByID(ctx, id)
	if err != nil {
		return nil, mapArticleError(id, err)
	}
	return article, nil
}

// Delete removes an article. Deleting a missing ID is not an error.
func (s *ArticleService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteArticle(ctx, id); err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	s.metrics.IncArticleDeleted()

	return nil
}

// Update replaces the title and content of an existing article in one
// transaction and returns the updated record.
func (s *ArticleService) Update(ctx context.Context, id int64, title, content string) (*model.Article, error) {
	if err := ValidateArticle(title, content); err != nil {
		return nil, err
	}

	article, err := s.store.UpdateArticle(ctx, id, func(a *model.Article) error {
		a.Update(title, content)
		return nil
	})
	if err != nil {
		return nil, mapArticleError(id, err)
	}

	s.metrics.IncArticleUpdated()

	return article, nil
}

func mapArticleError(id int64, err error) error {
	if errors.Is(err, repository.ErrArticleNotFound) {
		return fmt.Errorf("not found:%d: %w", id, ErrArticleNotFound)
	}
	return err
}
