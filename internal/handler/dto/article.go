// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/inkpost/inkpost/internal/model"
)

// ArticleRequest is the body of article create and update requests.
type ArticleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ArticleResponse represents an article in API responses.
type ArticleResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateAccountRequest is the JSON body of POST /user.
type CreateAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountResponse represents a created account. The password hash is never
// part of any response.
type AccountResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// ToArticleResponse converts an Article model to its DTO.
func ToArticleResponse(a *model.Article) *ArticleResponse {
	return &ArticleResponse{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ToArticleListResponse converts articles to DTOs. The result is never nil
// so an empty list encodes as [].
func ToArticleListResponse(articles []*model.Article) []*ArticleResponse {
	out := make([]*ArticleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, ToArticleResponse(a))
	}
	return out
}

// ToAccountResponse converts an Account model to its DTO.
func ToAccountResponse(a *model.Account) *AccountResponse {
	return &AccountResponse{ID: a.ID, Email: a.Email}
}
