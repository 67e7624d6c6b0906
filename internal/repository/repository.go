package repository

import (
	"context"

	"github.com/inkwell/cms/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// ArticleRepository persists articles. Every read and write is scoped by the
// owning user id; a mismatched owner behaves exactly like a missing row.
type ArticleRepository interface {
	CreateArticle(ctx context.Context, article *domain.Article) error
	GetArticle(ctx context.Context, ownerID, articleID string) (*domain.Article, error)
	ListArticles(ctx context.Context, ownerID string, limit, offset int) ([]domain.Article, error)
	CountArticles(ctx context.Context, ownerID string) (int, error)
	UpdateArticle(ctx context.Context, article *domain.Article) error
	DeleteArticle(ctx context.Context, ownerID, articleID string) error
}
