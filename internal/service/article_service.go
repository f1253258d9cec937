package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// ArticleService coordinates knowledge-base workflows.
type ArticleService struct {
	articles repository.ArticleRepository
}

// ArticleInput describes create/update payloads.
type ArticleInput struct {
	Title     string
	Body      string
	Category  domain.TicketCategory
	Published bool
}

// NewArticleService constructs the service.
func NewArticleService(articles repository.ArticleRepository) *ArticleService {
	return &ArticleService{articles: articles}
}

// CreateArticle creates an entry authored by a support-capable user.
func (s *ArticleService) CreateArticle(ctx context.Context, author *domain.User, input ArticleInput) (*domain.Article, error) {
	if !author.Role.SupportCapable() {
		return nil, apperrors.NewForbidden("support role required")
	}
	article := &domain.Article{
		Title:     strings.TrimSpace(input.Title),
		Body:      strings.TrimSpace(input.Body),
		Category:  input.Category,
		Author:    author.Ref(),
		Published: input.Published,
	}
	if article.Title == "" || article.Body == "" {
		return nil, apperrors.NewValidationError("title and body required", nil)
	}
	if article.Category == "" {
		article.Category = domain.CategoryOther
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, apperrors.MapError(err)
	}
	return article, nil
}

// UpdateArticle updates an existing entry.
func (s *ArticleService) UpdateArticle(ctx context.Context, actor *domain.User, articleID string, input ArticleInput) (*domain.Article, error) {
	if !actor.Role.SupportCapable() {
		return nil, apperrors.NewForbidden("support role required")
	}
	article, err := s.getArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	article.Title = strings.TrimSpace(input.Title)
	article.Body = strings.TrimSpace(input.Body)
	article.Category = input.Category
	article.Published = input.Published
	if article.Title == "" || article.Body == "" {
		return nil, apperrors.NewValidationError("title and body required", nil)
	}
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, apperrors.MapError(err)
	}
	return article, nil
}

// DeleteArticle removes an entry. Admin only.
func (s *ArticleService) DeleteArticle(ctx context.Context, actor *domain.User, articleID string) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	if err := s.articles.Delete(ctx, articleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("article", map[string]any{"article_id": articleID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// GetArticle returns an entry visible to the caller: unpublished
// entries require a support-capable role.
func (s *ArticleService) GetArticle(ctx context.Context, caller *domain.User, articleID string) (*domain.Article, error) {
	article, err := s.getArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !article.Published && !caller.Role.SupportCapable() {
		return nil, apperrors.NewNotFound("article", map[string]any{"article_id": articleID})
	}
	return article, nil
}

// ListArticles returns entries visible to the caller.
func (s *ArticleService) ListArticles(ctx context.Context, caller *domain.User, limit, offset int) ([]domain.Article, error) {
	publishedOnly := !caller.Role.SupportCapable()
	articles, err := s.articles.List(ctx, publishedOnly, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return articles, nil
}

func (s *ArticleService) getArticle(ctx context.Context, articleID string) (*domain.Article, error) {
	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("article", map[string]any{"article_id": articleID})
		}
		return nil, apperrors.MapError(err)
	}
	return article, nil
}
