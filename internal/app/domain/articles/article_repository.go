package articles

import (
	"context"
	"errors"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	database "github.com/FACorreiaa/go-kidspots/internal/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	ListPublished(ctx context.Context, filter models.ArticleFilter) ([]models.Article, int, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool database.Pool
}

func NewRepository(pgpool database.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var summaryColumns = []string{
	"a.id", "a.title", "a.slug", "a.excerpt", "a.cover_image", "a.category", "a.tags",
	"a.read_time_minutes", "a.is_featured", "a.published_at", "a.view_count", "a.created_at", "a.updated_at",
	"pr.id", "pr.full_name", "pr.avatar_url",
}

func applyFilter(q sq.SelectBuilder, filter models.ArticleFilter) sq.SelectBuilder {
	q = q.Where(sq.Eq{"a.is_published": true})
	if filter.Category != "" {
		q = q.Where(sq.Eq{"a.category": string(filter.Category)})
	}
	if filter.FeaturedOnly {
		q = q.Where(sq.Eq{"a.is_featured": true})
	}
	if filter.Tag != "" {
		q = q.Where(sq.Expr("? = ANY(a.tags)", filter.Tag))
	}
	return q
}

func buildListQuery(filter models.ArticleFilter) sq.SelectBuilder {
	q := psql.Select(summaryColumns...).
		From("articles a").
		LeftJoin("profiles pr ON pr.id = a.author_id")
	return applyFilter(q, filter).
		OrderBy("a.published_at DESC NULLS LAST", "a.id").
		Limit(uint64(filter.Page.PerPage)).
		Offset(uint64(filter.Page.Offset()))
}

func buildCountQuery(filter models.ArticleFilter) sq.SelectBuilder {
	return applyFilter(psql.Select("COUNT(*)").From("articles a"), filter)
}

func scanAuthor(a *models.Article, id *uuid.UUID, name, avatar *string) {
	if id != nil {
		a.Author = &models.AuthorSummary{ID: *id, FullName: name, AvatarURL: avatar}
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
}

// ListPublished returns one page of published articles, newest first, without bodies.
func (r *RepositoryImpl) ListPublished(ctx context.Context, filter models.ArticleFilter) ([]models.Article, int, error) {
	countSQL, countArgs, err := buildCountQuery(filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build article count query: %w", err)
	}
	var total int
	if err := r.pgpool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		r.logger.Error("Failed to count articles", zap.Error(err))
		return nil, 0, models.DatabaseError("failed to count articles", err)
	}

	query, args, err := buildListQuery(filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build article query: %w", err)
	}
	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list articles", zap.Error(err))
		return nil, 0, models.DatabaseError("failed to list articles", err)
	}
	defer rows.Close()

	articles := make([]models.Article, 0, filter.Page.PerPage)
	for rows.Next() {
		var (
			a                  models.Article
			authorID           *uuid.UUID
			authorName, avatar *string
		)
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.CoverImage, &a.Category, &a.Tags,
			&a.ReadTimeMinutes, &a.IsFeatured, &a.PublishedAt, &a.ViewCount, &a.CreatedAt, &a.UpdatedAt,
			&authorID, &authorName, &avatar,
		); err != nil {
			return nil, 0, models.DatabaseError("failed to scan article", err)
		}
		scanAuthor(&a, authorID, authorName, avatar)
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, models.DatabaseError("failed iterating articles", err)
	}
	return articles, total, nil
}

// GetPublishedBySlug loads a full article. Drafts are reported as not found.
func (r *RepositoryImpl) GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error) {
	query, args, err := psql.Select(slices.Concat(summaryColumns, []string{"a.content"})...).
		From("articles a").
		LeftJoin("profiles pr ON pr.id = a.author_id").
		Where(sq.Eq{"a.slug": slug, "a.is_published": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article query: %w", err)
	}

	var (
		a                  models.Article
		authorID           *uuid.UUID
		authorName, avatar *string
	)
	err = r.pgpool.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.CoverImage, &a.Category, &a.Tags,
		&a.ReadTimeMinutes, &a.IsFeatured, &a.PublishedAt, &a.ViewCount, &a.CreatedAt, &a.UpdatedAt,
		&authorID, &authorName, &avatar, &a.Content,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("article %q: %w", slug, models.ErrNotFound)
		}
		r.logger.Error("Failed to get article", zap.String("slug", slug), zap.Error(err))
		return nil, models.DatabaseError("failed to get article", err)
	}
	scanAuthor(&a, authorID, authorName, avatar)
	return &a, nil
}

func (r *RepositoryImpl) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pgpool.Exec(ctx, `UPDATE articles SET view_count = view_count + 1 WHERE id = $1`, id); err != nil {
		return models.DatabaseError("failed to increment article views", err)
	}
	return nil
}
