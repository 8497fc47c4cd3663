package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"chessbridge-backend/lib/catalogstore"
	"chessbridge-backend/lib/scrapers/chesserp"
	"chessbridge-backend/lib/sqliteutil"
	"chessbridge-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

// fakeERP is the upstream stand-in: a login endpoint plus per-path data
// handlers, counting data requests so tests can assert snapshot reuse.
type fakeERP struct {
	mux             *http.ServeMux
	articleRequests atomic.Int32
}

func newFakeERP(t *testing.T, articles []map[string]any) (*fakeERP, *httptest.Server) {
	erp := &fakeERP{mux: http.NewServeMux()}
	erp.mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"sessionId": "JSESSIONID=test"})
	})
	erp.mux.HandleFunc("GET /articulos/", func(w http.ResponseWriter, r *http.Request) {
		erp.articleRequests.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"eArticulos": articles})
	})
	server := httptest.NewServer(erp.mux)
	t.Cleanup(server.Close)
	return erp, server
}

func newTestService(t *testing.T, baseUrl string, config Config) (Service, *http.ServeMux) {
	t.Cleanup(telemetry.SetupForTesting(t, "catalog"))
	client, err := chesserp.NewClient(chesserp.ClientOptions{
		BaseUrl:  baseUrl,
		Username: "test",
		Password: "test",
	})
	require.NoError(t, err)

	db, err := sqliteutil.OpenDB(catalogstore.Schema, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	service := NewService(client, catalogstore.NewStore(db), config)
	mux := http.NewServeMux()
	service.Register(mux)
	return service, mux
}

func doRequest(mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest("GET", target, nil))
	return recorder
}

func decodeArticles(t *testing.T, recorder *httptest.ResponseRecorder) []chesserp.Article {
	var articles []chesserp.Article
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &articles))
	return articles
}

func TestArticlesSearchIgnoresAccents(t *testing.T) {
	_, server := newFakeERP(t, []map[string]any{
		{"idArticulo": "1", "desArticulo": "AZÚCAR LEDESMA"},
		{"idArticulo": "2", "desArticulo": "Harina 000"},
	})
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/articles?q=azucar")
	require.Equal(t, http.StatusOK, recorder.Code)
	articles := decodeArticles(t, recorder)
	require.Len(t, articles, 1)
	require.Equal(t, "1", articles[0].ID)
}

func TestArticlesEmptyResultIsAList(t *testing.T) {
	_, server := newFakeERP(t, []map[string]any{
		{"idArticulo": "1", "desArticulo": "Harina"},
	})
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/articles?q=nomatch")
	require.Equal(t, http.StatusOK, recorder.Code)
	// the frontend iterates the body, so "nothing" is [], never null
	require.JSONEq(t, "[]", recorder.Body.String())
}

func TestArticlesSnapshotIsReused(t *testing.T) {
	erp, server := newFakeERP(t, []map[string]any{
		{"idArticulo": "1", "desArticulo": "Harina"},
	})
	_, mux := newTestService(t, server.URL, Config{})

	require.Equal(t, http.StatusOK, doRequest(mux, "/articles?q=har").Code)
	afterFirst := erp.articleRequests.Load()
	require.Positive(t, afterFirst)

	// subsequent keystrokes run against the snapshot
	require.Equal(t, http.StatusOK, doRequest(mux, "/articles?q=hari").Code)
	require.Equal(t, http.StatusOK, doRequest(mux, "/articles?q=harin").Code)
	require.Equal(t, afterFirst, erp.articleRequests.Load())
}

func TestArticlesLimit(t *testing.T) {
	_, server := newFakeERP(t, []map[string]any{
		{"idArticulo": "1", "desArticulo": "Galletitas A"},
		{"idArticulo": "2", "desArticulo": "Galletitas B"},
		{"idArticulo": "3", "desArticulo": "Galletitas C"},
	})
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/articles?q=galletitas&limit=2")
	require.Len(t, decodeArticles(t, recorder), 2)
}

func TestArticlesFuzzyFallback(t *testing.T) {
	_, server := newFakeERP(t, []map[string]any{
		{"idArticulo": "1", "desArticulo": "AZÚCAR"},
		{"idArticulo": "2", "desArticulo": "Harina"},
	})
	_, mux := newTestService(t, server.URL, Config{Fallback: FallbackFuzzy})

	// misspelled query: substring filter finds nothing, similarity ranking
	// still surfaces the intended article
	recorder := doRequest(mux, "/articles?q=asucar")
	require.Equal(t, http.StatusOK, recorder.Code)
	articles := decodeArticles(t, recorder)
	require.Len(t, articles, 1)
	require.Equal(t, "1", articles[0].ID)
}

func TestArticlesStrictFallbackStaysEmpty(t *testing.T) {
	_, server := newFakeERP(t, []map[string]any{
		{"idArticulo": "1", "desArticulo": "AZÚCAR"},
	})
	_, mux := newTestService(t, server.URL, Config{Fallback: FallbackStrict})

	recorder := doRequest(mux, "/articles?q=asucar")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, "[]", recorder.Body.String())
}

func TestArticleRequiresID(t *testing.T) {
	_, server := newFakeERP(t, nil)
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/article")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, recorder.Body.String(), "id")
}

func TestArticlePointLookup(t *testing.T) {
	_, server := newFakeERP(t, []map[string]any{
		{"idArticulo": "000142", "desArticulo": "Yerba"},
		{"idArticulo": "999", "desArticulo": "Sal"},
	})
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/article?id=142")
	require.Equal(t, http.StatusOK, recorder.Code)
	articles := decodeArticles(t, recorder)
	require.Len(t, articles, 1)
	require.Equal(t, "000142", articles[0].ID)

	recorder = doRequest(mux, "/article?id=777")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, "[]", recorder.Body.String())
}

func TestPriceRequiresID(t *testing.T) {
	_, server := newFakeERP(t, nil)
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/price")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestPriceReturnsMatchingEntries(t *testing.T) {
	erp, server := newFakeERP(t, nil)
	erp.mux.HandleFunc("GET /listaPrecios/", func(w http.ResponseWriter, r *http.Request) {
		// the configured default list is used when the request names none
		require.Equal(t, "4", r.URL.Query().Get("Lista"))
		json.NewEncoder(w).Encode(map[string]any{"eListaPrecios": []map[string]any{
			{"CodArt": "000142", "precioFinal": 10.5},
			{"CodArt": "999", "precioFinal": 3.0},
		}})
	})
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/price?id=142")
	require.Equal(t, http.StatusOK, recorder.Code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "000142", entries[0]["CodArt"])
}

func TestPriceNoMatchShipsHint(t *testing.T) {
	erp, server := newFakeERP(t, nil)
	erp.mux.HandleFunc("GET /listaPrecios/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"eListaPrecios": []map[string]any{
			{"CodArt": "999", "precioFinal": 3.0},
		}})
	})
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/price?id=142")
	require.Equal(t, http.StatusOK, recorder.Code)
	var body struct {
		Results    []any    `json:"results"`
		Hint       string   `json:"hint"`
		SampleKeys []string `json:"sampleKeys"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Empty(t, body.Results)
	require.NotEmpty(t, body.Hint)
	require.Contains(t, body.SampleKeys, "CodArt")
}

func TestPriceUpstreamEnvelopeBecomesBadGateway(t *testing.T) {
	erp, server := newFakeERP(t, nil)
	erp.mux.HandleFunc("GET /listaPrecios/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 404, "mensaje": "lista inexistente",
		})
	})
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/price?id=142&list=99")
	require.Equal(t, http.StatusBadGateway, recorder.Code)
	require.Contains(t, recorder.Body.String(), "error")
}

func TestStockRequiresID(t *testing.T) {
	_, server := newFakeERP(t, nil)
	_, mux := newTestService(t, server.URL, Config{})

	require.Equal(t, http.StatusBadRequest, doRequest(mux, "/stock").Code)
}

func TestStockRejectsNonNumericDeposit(t *testing.T) {
	_, server := newFakeERP(t, nil)
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/stock?id=142&deposit=abc")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, recorder.Body.String(), "deposit")
}

func TestStockUsesConfiguredDeposit(t *testing.T) {
	erp, server := newFakeERP(t, nil)
	erp.mux.HandleFunc("GET /stock/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("idDeposito"))
		require.Equal(t, "142", r.URL.Query().Get("idArticulo"))
		json.NewEncoder(w).Encode(map[string]any{"eStockFisico": []map[string]any{
			{"idArticulo": "142", "stockUnidades": 7},
		}})
	})
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/stock?id=142")
	require.Equal(t, http.StatusOK, recorder.Code)
	var record map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &record))
	require.Equal(t, 7.0, record["stockUnidades"])
}

func TestStockNotFoundIsEmptyObject(t *testing.T) {
	erp, server := newFakeERP(t, nil)
	erp.mux.HandleFunc("GET /stock/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"eStockFisico": []any{}})
	})
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/stock?id=142")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, "{}", recorder.Body.String())
}

func TestStockUpstreamFailureMirrorsStatus(t *testing.T) {
	erp, server := newFakeERP(t, nil)
	erp.mux.HandleFunc("GET /stock/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "deposito inexistente", http.StatusNotFound)
	})
	_, mux := newTestService(t, server.URL, Config{})

	recorder := doRequest(mux, "/stock?id=142&deposit=99")
	require.Equal(t, http.StatusNotFound, recorder.Code)
}
