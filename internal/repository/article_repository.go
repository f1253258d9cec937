package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ArticleRepository encapsulates knowledge-base persistence.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	Update(ctx context.Context, article *domain.Article) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]domain.Article, error)
}

type articleRepository struct {
	pool *pgxpool.Pool
}

// NewArticleRepository instantiates repository.
func NewArticleRepository(pool *pgxpool.Pool) ArticleRepository {
	return &articleRepository{pool: pool}
}

const articleColumns = `
        k.id, k.title, k.body, k.category, k.published,
        u.id, u.name, u.email, u.role,
        k.created_at, k.updated_at`

func (r *articleRepository) Create(ctx context.Context, article *domain.Article) error {
	const query = `
        INSERT INTO kb_articles (title, body, category, author_user_id, published)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		article.Title,
		article.Body,
		article.Category,
		article.Author.ID,
		article.Published,
	).Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
}

func (r *articleRepository) Update(ctx context.Context, article *domain.Article) error {
	const query = `
        UPDATE kb_articles SET title=$1, body=$2, category=$3, published=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query,
		article.Title,
		article.Body,
		article.Category,
		article.Published,
		article.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *articleRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM kb_articles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *articleRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	query := `SELECT` + articleColumns + `
        FROM kb_articles k
        JOIN users u ON u.id = k.author_user_id
        WHERE k.id=$1`
	return scanArticle(r.pool.QueryRow(ctx, query, id))
}

func (r *articleRepository) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]domain.Article, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT` + articleColumns + `
        FROM kb_articles k
        JOIN users u ON u.id = k.author_user_id`
	if publishedOnly {
		query += ` WHERE k.published`
	}
	query += ` ORDER BY k.updated_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := []domain.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *article)
	}
	return articles, rows.Err()
}

func scanArticle(row pgx.Row) (*domain.Article, error) {
	var article domain.Article
	if err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Body,
		&article.Category,
		&article.Published,
		&article.Author.ID,
		&article.Author.Name,
		&article.Author.Email,
		&article.Author.Role,
		&article.CreatedAt,
		&article.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &article, nil
}
