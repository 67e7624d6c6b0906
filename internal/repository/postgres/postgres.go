package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell/cms/internal/domain"
	"github.com/inkwell/cms/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository    = (*Repository)(nil)
	_ repository.ArticleRepository = (*Repository)(nil)
)

const uniqueViolation = "23505"

// classify maps driver faults onto repository sentinels. Anything that is not
// a missing row or a uniqueness conflict counts as the store being unavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	return classify(err)
}

// GetUserByUsername fetches a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`
	row := r.pool.QueryRow(ctx, query, username)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, username, password_hash, created_at FROM users WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// CreateArticle inserts an article.
func (r *Repository) CreateArticle(ctx context.Context, article *domain.Article) error {
	const query = `INSERT INTO articles (id, owner_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, article.ID, article.OwnerID, article.Title, article.Content, article.CreatedAt, article.UpdatedAt)
	return classify(err)
}

// GetArticle fetches an article scoped to its owner. A row owned by someone
// else yields ErrNotFound, indistinguishable from a missing row.
func (r *Repository) GetArticle(ctx context.Context, ownerID, articleID string) (*domain.Article, error) {
	const query = `SELECT id, owner_id, title, content, created_at, updated_at
		FROM articles WHERE id = $1 AND owner_id = $2`
	row := r.pool.QueryRow(ctx, query, articleID, ownerID)
	var a domain.Article
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Title, &a.Content, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

// ListArticles returns one page of the owner's articles, most recently
// modified first. The id tiebreak keeps paging stable for equal timestamps.
func (r *Repository) ListArticles(ctx context.Context, ownerID string, limit, offset int) ([]domain.Article, error) {
	const query = `SELECT id, owner_id, title, content, created_at, updated_at
		FROM articles
		WHERE owner_id = $1
		ORDER BY updated_at DESC, id
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	articles := make([]domain.Article, 0)
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Title, &a.Content, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, classify(err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return articles, nil
}

// CountArticles counts the owner's articles.
func (r *Repository) CountArticles(ctx context.Context, ownerID string) (int, error) {
	const query = `SELECT COUNT(1) FROM articles WHERE owner_id = $1`
	row := r.pool.QueryRow(ctx, query, ownerID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, classify(err)
	}
	return count, nil
}

// UpdateArticle writes the mutable fields of an article back to its row.
// The owner predicate makes a cross-owner update look like a missing row.
func (r *Repository) UpdateArticle(ctx context.Context, article *domain.Article) error {
	const query = `UPDATE articles SET title = $3, content = $4, updated_at = $5
		WHERE id = $1 AND owner_id = $2`
	tag, err := r.pool.Exec(ctx, query, article.ID, article.OwnerID, article.Title, article.Content, article.UpdatedAt)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteArticle removes an article scoped to its owner. Deleting an id that is
// already gone reports ErrNotFound.
func (r *Repository) DeleteArticle(ctx context.Context, ownerID, articleID string) error {
	const query = `DELETE FROM articles WHERE id = $1 AND owner_id = $2`
	tag, err := r.pool.Exec(ctx, query, articleID, ownerID)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
