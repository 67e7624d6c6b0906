package article

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/inkwell/cms/internal/cache"
	"github.com/inkwell/cms/internal/domain"
	"github.com/inkwell/cms/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ErrInvalidInput indicates an empty title or content.
var ErrInvalidInput = errors.New("title and content are required")

// Page is one page of an owner's articles with pagination metadata.
type Page struct {
	Items      []domain.Article
	Page       int
	PageSize   int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// Service implements owner-scoped article CRUD. If cache is nil, list
// caching is disabled and every page comes from the repository.
type Service struct {
	articles repository.ArticleRepository
	cache    *cache.ArticleCache
	logger   *slog.Logger
	sf       singleflight.Group
	now      func() time.Time
}

// New constructs a Service.
func New(articles repository.ArticleRepository, c *cache.ArticleCache, logger *slog.Logger) *Service {
	return &Service{articles: articles, cache: c, logger: logger, now: time.Now}
}

// Create validates and persists a new article for the owner. Created and
// updated timestamps start out equal.
func (s *Service) Create(ctx context.Context, ownerID, title, content string) (*domain.Article, error) {
	title = strings.TrimSpace(title)
	if title == "" || content == "" {
		return nil, ErrInvalidInput
	}
	now := s.now().UTC()
	article := &domain.Article{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.articles.CreateArticle(ctx, article); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, ownerID)
	return article, nil
}

// Get returns the article only when it exists under this owner.
func (s *Service) Get(ctx context.Context, ownerID, articleID string) (*domain.Article, error) {
	return s.articles.GetArticle(ctx, ownerID, articleID)
}

// List returns one page of the owner's articles ordered by most recently
// modified first. Page is 1-indexed; pageSize is clamped to [1,100]. Pages
// past the end yield empty items with correct metadata, not an error.
func (s *Service) List(ctx context.Context, ownerID string, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, total, err := s.loadPage(ctx, ownerID, page, pageSize)
	if err != nil {
		return Page{}, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	return Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}

func (s *Service) loadPage(ctx context.Context, ownerID string, page, pageSize int) ([]domain.Article, int, error) {
	if s.cache == nil {
		return s.queryPage(ctx, ownerID, page, pageSize)
	}
	key := ownerID + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(pageSize)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if cached, err := s.cache.GetPage(ctx, ownerID, page, pageSize); err == nil && cached != nil {
			return *cached, nil
		} else if err != nil {
			s.logger.Warn("article cache read failed", "error", err, "owner_id", ownerID)
		}
		items, total, err := s.queryPage(ctx, ownerID, page, pageSize)
		if err != nil {
			return nil, err
		}
		entry := cache.Page{Items: items, Total: total}
		if err := s.cache.SetPage(ctx, ownerID, page, pageSize, entry); err != nil {
			s.logger.Warn("article cache write failed", "error", err, "owner_id", ownerID)
		}
		return entry, nil
	})
	if err != nil {
		return nil, 0, err
	}
	entry := v.(cache.Page)
	return entry.Items, entry.Total, nil
}

func (s *Service) queryPage(ctx context.Context, ownerID string, page, pageSize int) ([]domain.Article, int, error) {
	total, err := s.articles.CountArticles(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.articles.ListArticles(ctx, ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update applies the fields present in the patch and always refreshes the
// updated timestamp, even when nothing changed value. Ownership rules match Get.
func (s *Service) Update(ctx context.Context, ownerID, articleID string, patch domain.ArticlePatch) (*domain.Article, error) {
	existing, err := s.articles.GetArticle(ctx, ownerID, articleID)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, ErrInvalidInput
		}
		existing.Title = title
	}
	if patch.Content != nil {
		if *patch.Content == "" {
			return nil, ErrInvalidInput
		}
		existing.Content = *patch.Content
	}
	existing.UpdatedAt = s.now().UTC()
	if err := s.articles.UpdateArticle(ctx, existing); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, ownerID)
	return existing, nil
}

// Delete removes the article. A repeated delete of the same id reports
// ErrNotFound, not success.
func (s *Service) Delete(ctx context.Context, ownerID, articleID string) error {
	if err := s.articles.DeleteArticle(ctx, ownerID, articleID); err != nil {
		return err
	}
	s.invalidateCache(ctx, ownerID)
	return nil
}

func (s *Service) invalidateCache(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.logger.Warn("article cache invalidation failed", "error", err, "owner_id", ownerID)
	}
}
