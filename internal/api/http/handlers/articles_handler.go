package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// ArticlesHandler manages knowledge-base endpoints.
type ArticlesHandler struct {
	articles *service.ArticleService
}

// NewArticlesHandler constructs handler.
func NewArticlesHandler(articles *service.ArticleService) *ArticlesHandler {
	return &ArticlesHandler{articles: articles}
}

// Create POST /kb.
func (h *ArticlesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	article, err := h.articles.CreateArticle(c.Context(), principal.User, service.ArticleInput{
		Title:     req.Title,
		Body:      req.Body,
		Category:  req.Category,
		Published: req.Published,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": article})
}

// Update PUT /kb/:id.
func (h *ArticlesHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	article, err := h.articles.UpdateArticle(c.Context(), principal.User, c.Params("id"), service.ArticleInput{
		Title:     req.Title,
		Body:      req.Body,
		Category:  req.Category,
		Published: req.Published,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": article})
}

// Delete DELETE /kb/:id.
func (h *ArticlesHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.articles.DeleteArticle(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Get GET /kb/:id.
func (h *ArticlesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	article, err := h.articles.GetArticle(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": article})
}

// List GET /kb.
func (h *ArticlesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	articles, err := h.articles.ListArticles(c.Context(), principal.User,
		parseIntQuery(c, "limit", 50), parseIntQuery(c, "offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": articles})
}
