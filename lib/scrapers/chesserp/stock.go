package chesserp

import (
	"context"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/codes"
)

type StockRequest struct {
	// required article id
	ArticleID string
	// deposit (warehouse) number
	Deposit int
}

// Stock fetches the stock row for one article in one deposit. The endpoint
// usually answers with an eStockFisico array holding a single row; the first
// extracted record wins. A payload with no recognizable row yields ok=false,
// not an error.
func (c *Client) Stock(ctx context.Context, req StockRequest) (Record, bool, error) {
	ctx, span := tracer.Start(ctx, "chesserp:Stock")
	defer span.End()

	params := url.Values{}
	params.Set("idDeposito", strconv.Itoa(req.Deposit))
	params.Set("idArticulo", req.ArticleID)

	records, err := c.getRecords(ctx, "/stock/", params, StockContainers)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock request failed")
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0], true, nil
}
