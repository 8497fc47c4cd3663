package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"chessbridge-backend/lib/catalogstore"
	"chessbridge-backend/lib/scrapers/chesserp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/catalog")

type FallbackMode string

const (
	// FallbackStrict returns an empty list when the filter matches nothing
	FallbackStrict FallbackMode = "strict"
	// FallbackFuzzy returns the closest snapshot entries by name
	// similarity instead
	FallbackFuzzy FallbackMode = "fuzzy"
)

type Config struct {
	// price list code used when the request does not name one
	PriceList string `json:"price_list"`
	// deposit queried when the request does not name one
	Deposit int `json:"deposit"`
	// articles returned when the request does not cap itself
	DefaultLimit int `json:"default_limit"`
	// how long a catalog snapshot stays fresh, seconds
	RefreshSeconds int `json:"refresh_seconds"`
	// "strict" or "fuzzy", see FallbackMode
	Fallback FallbackMode `json:"fallback"`
}

func (c Config) withDefaults() Config {
	if c.PriceList == "" {
		c.PriceList = "4"
	}
	if c.Deposit == 0 {
		c.Deposit = 1
	}
	if c.DefaultLimit == 0 {
		c.DefaultLimit = 2000
	}
	if c.RefreshSeconds == 0 {
		c.RefreshSeconds = 300
	}
	if c.Fallback == "" {
		c.Fallback = FallbackStrict
	}
	return c
}

type Service struct {
	client *chesserp.Client
	store  catalogstore.Store
	config Config

	// serializes snapshot refreshes so concurrent keystrokes do not each
	// re-walk the ERP
	refreshMu *sync.Mutex
}

func NewService(client *chesserp.Client, store catalogstore.Store, config Config) Service {
	return Service{
		client:    client,
		store:     store,
		config:    config.withDefaults(),
		refreshMu: &sync.Mutex{},
	}
}

// Register mounts the browser-facing endpoints on the mux.
func (s Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /articles", s.handleArticles)
	mux.HandleFunc("GET /article", s.handleArticle)
	mux.HandleFunc("GET /price", s.handlePrice)
	mux.HandleFunc("GET /stock", s.handleStock)
}

func (s Service) handleArticles(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "catalog:handleArticles")
	defer span.End()

	query := r.URL.Query().Get("q")
	limit := parseLimit(r.URL.Query().Get("limit"), s.config.DefaultLimit)

	err := s.ensureSnapshot(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot refresh failed")
		writeError(w, err)
		return
	}

	articles, err := s.store.Search(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		writeError(w, err)
		return
	}
	if len(articles) == 0 && query != "" && s.config.Fallback == FallbackFuzzy {
		articles, err = s.fuzzyLookup(ctx, query)
		if err != nil {
			span.RecordError(err)
			writeError(w, err)
			return
		}
	}
	if articles == nil {
		articles = []chesserp.Article{}
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s Service) handleArticle(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "catalog:handleArticle")
	defer span.End()

	id := r.URL.Query().Get("id")
	if id == "" {
		writeErrorMessage(w, http.StatusBadRequest, "missing required parameter: id")
		return
	}

	article, found, err := s.client.Article(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "article lookup failed")
		writeError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, []chesserp.Article{})
		return
	}
	writeJSON(w, http.StatusOK, []chesserp.Article{article})
}

func (s Service) handlePrice(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "catalog:handlePrice")
	defer span.End()

	id := r.URL.Query().Get("id")
	if id == "" {
		writeErrorMessage(w, http.StatusBadRequest, "missing required parameter: id")
		return
	}
	list := r.URL.Query().Get("list")
	if list == "" {
		list = s.config.PriceList
	}

	result, err := s.client.Prices(ctx, chesserp.PricesRequest{
		ArticleID: id,
		List:      list,
		Date:      r.URL.Query().Get("date"),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "price lookup failed")
		writeError(w, err)
		return
	}
	if len(result.Entries) == 0 {
		// soft fail: the ERP schema drifted or the article has no price
		// on this list; ship a diagnostic so the alias tables can be
		// extended
		writeJSON(w, http.StatusOK, map[string]any{
			"results":    []chesserp.Record{},
			"hint":       "no matching price entries",
			"sampleKeys": result.SampleKeys,
		})
		return
	}
	writeJSON(w, http.StatusOK, result.Entries)
}

func (s Service) handleStock(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "catalog:handleStock")
	defer span.End()

	id := r.URL.Query().Get("id")
	if id == "" {
		writeErrorMessage(w, http.StatusBadRequest, "missing required parameter: id")
		return
	}
	deposit := s.config.Deposit
	if raw := r.URL.Query().Get("deposit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "deposit must be a number")
			return
		}
		deposit = parsed
	}

	record, found, err := s.client.Stock(ctx, chesserp.StockRequest{
		ArticleID: id,
		Deposit:   deposit,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock lookup failed")
		writeError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ensureSnapshot refreshes the catalog snapshot when it is stale. Only one
// refresh runs at a time; latecomers reuse its result.
func (s Service) ensureSnapshot(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	refreshedAt, err := s.store.RefreshedAt(ctx)
	if err != nil {
		return err
	}
	maxAge := time.Duration(s.config.RefreshSeconds) * time.Second
	if !refreshedAt.IsZero() && time.Since(refreshedAt) < maxAge {
		return nil
	}

	started := time.Now()
	articles, err := s.client.Articles(ctx, chesserp.ArticlesRequest{Limit: chesserp.HardCap})
	if err != nil {
		// keep serving the stale snapshot if there is one
		if !refreshedAt.IsZero() {
			slog.WarnContext(ctx, "catalog refresh failed, serving stale snapshot",
				"age", time.Since(refreshedAt), "err", err)
			return nil
		}
		return err
	}
	err = s.store.Replace(ctx, articles)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "catalog snapshot refreshed",
		"articles", len(articles), "took", time.Since(started))
	return nil
}

func parseLimit(raw string, fallback int) int {
	limit := fallback
	if raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return chesserp.ClampLimit(limit, fallback)
}
