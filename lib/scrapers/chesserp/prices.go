package chesserp

import (
	"context"
	"net/url"
	"time"

	"chessbridge-backend/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type PricesRequest struct {
	// required article id; matching is leading-zero insensitive
	ArticleID string
	// price list code, e.g. "4"
	List string
	// ISO date (YYYY-MM-DD); today when empty
	Date string
}

// PricesResult carries the matching entries plus, when nothing matched, a
// diagnostic sample so operators can spot a key spelling the alias tables
// are missing.
type PricesResult struct {
	Entries []Record
	// key names of one raw entry, populated only when Entries is empty
	SampleKeys []string
}

// Prices queries the price list for one article. The endpoint returns the
// whole list for the date; filtering happens here because the backend's
// CodArt parameter is ignored by some deployments.
func (c *Client) Prices(ctx context.Context, req PricesRequest) (PricesResult, error) {
	ctx, span := tracer.Start(ctx, "chesserp:Prices")
	defer span.End()

	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	params := url.Values{}
	params.Set("Fecha", date)
	params.Set("Lista", req.List)
	if req.ArticleID != "" {
		params.Set("CodArt", req.ArticleID)
	}

	payload, err := c.getPayload(ctx, "/listaPrecios/", params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "price list request failed")
		return PricesResult{}, err
	}
	if upstreamErr := errorEnvelope(payload); upstreamErr != nil {
		span.SetStatus(codes.Error, "price list returned error envelope")
		return PricesResult{}, upstreamErr
	}

	entries := FindRecords(payload, PriceContainers)
	if len(entries) == 0 {
		// a bare single-entry object is its own record
		if obj, ok := payload.(map[string]any); ok {
			entries = []Record{Record(obj)}
		}
	}
	span.SetAttributes(attribute.Int("entries", len(entries)))

	want := textutil.NormalizeID(req.ArticleID)
	var matched []Record
	for _, entry := range entries {
		if entry.ID() == want {
			matched = append(matched, entry)
		}
	}
	if len(matched) > 0 {
		return PricesResult{Entries: matched}, nil
	}

	result := PricesResult{Entries: []Record{}}
	if len(entries) > 0 {
		for key := range entries[0] {
			result.SampleKeys = append(result.SampleKeys, key)
		}
	}
	return result, nil
}
