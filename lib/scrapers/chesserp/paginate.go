package chesserp

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultPageSize is what the ChessERP listing endpoints hand out per page
// whether or not they were asked.
const DefaultPageSize = 100

// HardCap bounds total request volume and response size no matter what the
// caller asks for.
const HardCap = 5000

// FetchPageFunc issues one listing request with the given pagination
// parameters merged in and returns the extracted records.
type FetchPageFunc func(ctx context.Context, params url.Values) ([]Record, error)

type SchemeKind int

const (
	// SchemeNone means no candidate paginated; a single unpaginated
	// request serves whatever the backend returns.
	SchemeNone SchemeKind = iota
	SchemePage
	SchemeOffset
	SchemeRange
)

// Scheme is one pagination convention the backend might honor, bound to the
// concrete parameter names that worked. Discovered per listing request, not
// persisted.
type Scheme struct {
	Kind SchemeKind
	// page/offset/range-start parameter name
	First string
	// size/range-end parameter name
	Second string
}

func (s Scheme) String() string {
	switch s.Kind {
	case SchemePage:
		return fmt.Sprintf("page(%s/%s)", s.First, s.Second)
	case SchemeOffset:
		return fmt.Sprintf("offset(%s/%s)", s.First, s.Second)
	case SchemeRange:
		return fmt.Sprintf("range(%s/%s)", s.First, s.Second)
	}
	return "none"
}

// apply sets the parameters selecting 1-based page `page` of `size` records.
func (s Scheme) apply(params url.Values, page, size int) {
	switch s.Kind {
	case SchemePage:
		params.Set(s.First, strconv.Itoa(page))
		params.Set(s.Second, strconv.Itoa(size))
	case SchemeOffset:
		params.Set(s.First, strconv.Itoa((page-1)*size))
		params.Set(s.Second, strconv.Itoa(size))
	case SchemeRange:
		params.Set(s.First, strconv.Itoa((page-1)*size+1))
		params.Set(s.Second, strconv.Itoa(page*size))
	}
}

var (
	pageParams   = []string{"page", "pagina", "pageIndex", "pageNumber", "p"}
	sizeParams   = []string{"limit", "size", "pageSize", "cantidad", "per_page", "take"}
	offsetParams = []string{"offset", "start", "desde", "desdeId", "from"}
	rangePairs   = [][2]string{{"Desde", "Hasta"}, {"desde", "hasta"}}
)

func schemeCandidates() []Scheme {
	var out []Scheme
	for _, p := range pageParams {
		for _, s := range sizeParams {
			out = append(out, Scheme{Kind: SchemePage, First: p, Second: s})
		}
	}
	for _, o := range offsetParams {
		out = append(out, Scheme{Kind: SchemeOffset, First: o, Second: "limit"})
	}
	for _, r := range rangePairs {
		out = append(out, Scheme{Kind: SchemeRange, First: r[0], Second: r[1]})
	}
	return out
}

// accumulator keeps the ordered, id-deduplicated output. Records without a
// resolvable id are dropped, matching the original handlers.
type accumulator struct {
	seen  map[string]bool
	out   []Record
	limit int
}

func newAccumulator(limit int) *accumulator {
	return &accumulator{seen: map[string]bool{}, limit: limit}
}

// add folds a batch in, first occurrence wins. Reports whether the limit has
// been reached.
func (a *accumulator) add(batch []Record) (full bool) {
	for _, rec := range batch {
		id := rec.ID()
		if id == "" || a.seen[id] {
			continue
		}
		a.seen[id] = true
		a.out = append(a.out, rec)
		if len(a.out) >= a.limit {
			return true
		}
	}
	return false
}

// ClampLimit applies the default and the hard cap to a caller-supplied
// result limit.
func ClampLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit > HardCap {
		limit = HardCap
	}
	return limit
}

// FetchAll drives a listing endpoint whose pagination convention is unknown:
// it probes the candidate schemes sequentially (a scheme is accepted once
// its second page's first id differs from its first page's), then keeps
// requesting pages until an empty batch, a short batch, or `limit` unique
// ids. A failed page aborts the whole listing; partial results are never
// returned. When no candidate advances, a single unpaginated request is
// used.
func FetchAll(ctx context.Context, fetch FetchPageFunc, limit int) ([]Record, Scheme, error) {
	ctx, span := tracer.Start(ctx, "chesserp:FetchAll")
	defer span.End()

	limit = ClampLimit(limit, HardCap)

	scheme, acc, err := discoverScheme(ctx, fetch, limit)
	if err != nil {
		return nil, Scheme{}, err
	}
	span.SetAttributes(attribute.String("scheme", scheme.String()))

	if scheme.Kind == SchemeNone {
		batch, err := fetch(ctx, url.Values{})
		if err != nil {
			return nil, scheme, err
		}
		acc = newAccumulator(limit)
		acc.add(batch)
		return acc.out, scheme, nil
	}

	if len(acc.out) >= limit {
		return acc.out, scheme, nil
	}

	// the probe already consumed pages 1 and 2
	for page := 3; ; page++ {
		params := url.Values{}
		scheme.apply(params, page, DefaultPageSize)
		batch, err := fetch(ctx, params)
		if err != nil {
			return nil, scheme, err
		}
		if len(batch) == 0 {
			break
		}
		if acc.add(batch) {
			break
		}
		if len(batch) < DefaultPageSize {
			// short page means last page
			break
		}
	}
	return acc.out, scheme, nil
}

// discoverScheme probes each candidate with a page-1 and page-2 request. The
// probes run sequentially so the "did the second page advance" check
// observes a consistent ordering. A candidate whose requests fail is simply
// skipped: unknown parameters make some deployments reject the request
// outright, which disqualifies the candidate, not the listing.
func discoverScheme(ctx context.Context, fetch FetchPageFunc, limit int) (Scheme, *accumulator, error) {
	for _, candidate := range schemeCandidates() {
		if err := ctx.Err(); err != nil {
			return Scheme{}, nil, err
		}

		first := url.Values{}
		candidate.apply(first, 1, DefaultPageSize)
		batch1, err := fetch(ctx, first)
		if err != nil || len(batch1) == 0 {
			continue
		}

		second := url.Values{}
		candidate.apply(second, 2, DefaultPageSize)
		batch2, err := fetch(ctx, second)
		if err != nil || len(batch2) == 0 {
			continue
		}

		if firstID(batch1) == firstID(batch2) {
			// page 2 served the same data, the parameters were ignored
			continue
		}

		slog.DebugContext(ctx, "pagination scheme accepted", "scheme", candidate.String())
		acc := newAccumulator(limit)
		if acc.add(batch1) {
			return candidate, acc, nil
		}
		acc.add(batch2)
		return candidate, acc, nil
	}
	return Scheme{Kind: SchemeNone}, nil, nil
}

func firstID(batch []Record) string {
	if len(batch) == 0 {
		return ""
	}
	return batch[0].ID()
}
