package articles

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	"github.com/FACorreiaa/go-kidspots/internal/app/observability/metrics"
)

const (
	DefaultArticlesPerPage = 12
	MaxArticlesPerPage     = 50
	viewCountTimeout       = 5 * time.Second
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ListArticles(ctx context.Context, filter models.ArticleFilter) (models.Page[models.Article], error)
	GetArticle(ctx context.Context, slug string) (*models.Article, error)
}

type ServiceImpl struct {
	logger      *zap.Logger
	repo        Repository
	viewCounted func()
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ServiceImpl) ListArticles(ctx context.Context, filter models.ArticleFilter) (models.Page[models.Article], error) {
	ctx, span := otel.Tracer("ArticleService").Start(ctx, "ListArticles", trace.WithAttributes(
		attribute.String("article.category", string(filter.Category)),
		attribute.Bool("article.featured", filter.FeaturedOnly),
		attribute.String("article.tag", filter.Tag),
		attribute.Int("page", filter.Page.Page),
	))
	defer span.End()

	if filter.Category != "" && !filter.Category.Valid() {
		span.SetStatus(codes.Error, "invalid category")
		return models.Page[models.Article]{}, models.NewValidationError("category", fmt.Sprintf("unknown category %q", filter.Category))
	}

	articles, total, err := s.repo.ListPublished(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list articles", zap.String("method", "ListArticles"), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list articles")
		return models.Page[models.Article]{}, fmt.Errorf("failed to list articles: %w", err)
	}

	span.SetStatus(codes.Ok, "Articles listed")
	return models.Page[models.Article]{Data: articles, Pagination: filter.Page.Paginate(total)}, nil
}

// GetArticle returns a published article and counts the view in the background.
func (s *ServiceImpl) GetArticle(ctx context.Context, slug string) (*models.Article, error) {
	ctx, span := otel.Tracer("ArticleService").Start(ctx, "GetArticle", trace.WithAttributes(
		attribute.String("article.slug", slug),
	))
	defer span.End()

	article, err := s.repo.GetPublishedBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get article")
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	s.countView(ctx, article.ID)

	span.SetStatus(codes.Ok, "Article retrieved")
	return article, nil
}

func (s *ServiceImpl) countView(ctx context.Context, articleID uuid.UUID) {
	bg := context.WithoutCancel(ctx)
	go func() {
		if s.viewCounted != nil {
			defer s.viewCounted()
		}
		ctx, cancel := context.WithTimeout(bg, viewCountTimeout)
		defer cancel()

		if err := s.repo.IncrementViewCount(ctx, articleID); err != nil {
			metrics.Get().ViewCountFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", "article")))
			s.logger.Warn("Failed to increment article view count", zap.String("articleID", articleID.String()), zap.Error(err))
		}
	}()
}
