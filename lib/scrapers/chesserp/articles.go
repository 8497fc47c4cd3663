package chesserp

import (
	"context"
	"net/url"

	"chessbridge-backend/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Article is a catalog entry after shape normalization.
type Article struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	UnitsPerPack *float64 `json:"unitsPerPack,omitempty"`
	Barcode      string   `json:"barcode,omitempty"`
}

type ArticlesRequest struct {
	// optional substring filter on id or description, case and accent
	// insensitive
	Query string
	// maximum unique articles to return, clamped to the hard cap
	Limit int
}

// Articles pages through the catalog (discovering the pagination convention
// on the way) and returns normalized, deduplicated entries.
func (c *Client) Articles(ctx context.Context, req ArticlesRequest) ([]Article, error) {
	ctx, span := tracer.Start(ctx, "chesserp:Articles")
	defer span.End()

	limit := ClampLimit(req.Limit, 2000)

	records, scheme, err := FetchAll(ctx, func(ctx context.Context, params url.Values) ([]Record, error) {
		return c.getRecords(ctx, "/articulos/", params, ArticleContainers)
	}, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog listing failed")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("scheme", scheme.String()),
		attribute.Int("records", len(records)),
	)

	articles := make([]Article, 0, len(records))
	for _, rec := range records {
		article := normalizeArticle(rec)
		if article.ID == "" {
			continue
		}
		if req.Query != "" && !matchesQuery(article, req.Query) {
			continue
		}
		articles = append(articles, article)
		if len(articles) >= limit {
			break
		}
	}
	return articles, nil
}

// Article is the point lookup: a single unpaginated catalog request filtered
// by leading-zero-insensitive id equality.
func (c *Client) Article(ctx context.Context, id string) (Article, bool, error) {
	ctx, span := tracer.Start(ctx, "chesserp:Article")
	defer span.End()

	records, err := c.getRecords(ctx, "/articulos/", url.Values{}, ArticleContainers)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "article lookup failed")
		return Article{}, false, err
	}

	want := textutil.NormalizeID(id)
	for _, rec := range records {
		if rec.ID() == want {
			return normalizeArticle(rec), true, nil
		}
	}
	return Article{}, false, nil
}

func normalizeArticle(rec Record) Article {
	article := Article{
		ID:          PickString(rec, AliasArticleID),
		Description: PickString(rec, AliasDescription),
		Barcode:     PickString(rec, AliasBarcode),
	}
	if units, ok := PickFloat(rec, AliasUnitsPerPack); ok {
		article.UnitsPerPack = &units
	}
	return article
}

func matchesQuery(article Article, query string) bool {
	return textutil.ContainsFold(article.ID, query) ||
		textutil.ContainsFold(article.Description, query)
}
