package chesserp

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, raw string) any {
	var payload any
	err := json.Unmarshal([]byte(raw), &payload)
	require.NoError(t, err)
	return payload
}

func TestFindRecordsFlatArray(t *testing.T) {
	payload := parse(t, `[
		{"idArticulo": 1, "desArticulo": "Harina"},
		{"idArticulo": 2, "desArticulo": "Azúcar"}
	]`)
	records := FindRecords(payload, ArticleContainers)
	require.Len(t, records, 2)
	require.Equal(t, "1", records[0].ID())
	require.Equal(t, "2", records[1].ID())
}

func TestFindRecordsNamedArray(t *testing.T) {
	payload := parse(t, `{"eArticulos": [{"idArticulo": 7, "desArticulo": "Fideos"}]}`)
	records := FindRecords(payload, ArticleContainers)
	require.Len(t, records, 1)
	require.Equal(t, "Fideos", PickString(records[0], AliasDescription))
}

func TestFindRecordsNestedEnvelope(t *testing.T) {
	payload := parse(t, `{"dsArticulosApi": {"eArticulos": [{"idArticulo": 1, "desArticulo": "X"}]}}`)
	records := FindRecords(payload, ArticleContainers)
	require.Len(t, records, 1)
	require.Equal(t, "1", records[0].ID())
}

func TestFindRecordsArrayOfWrappers(t *testing.T) {
	// some deployments return an array of blocks each wrapping its own
	// named array
	payload := parse(t, `[
		{"eArticulos": [{"idArticulo": 1, "desArticulo": "A"}]},
		{"eArticulos": [{"idArticulo": 2, "desArticulo": "B"}]}
	]`)
	records := FindRecords(payload, ArticleContainers)
	require.Len(t, records, 2)
}

func TestFindRecordsSingleObject(t *testing.T) {
	payload := parse(t, `{"idArticulo": 9, "desArticulo": "Aceite"}`)
	records := FindRecords(payload, ArticleContainers)
	require.Len(t, records, 1)
}

func TestFindRecordsUnknownContainerKey(t *testing.T) {
	// record list under a key absent from the container table still gets
	// found by the fallback scan
	payload := parse(t, `{"someWeirdWrapper": [{"idArticulo": 3, "desArticulo": "Sal"}]}`)
	records := FindRecords(payload, ArticleContainers)
	require.Len(t, records, 1)
	require.Equal(t, "3", records[0].ID())
}

func TestFindRecordsNothing(t *testing.T) {
	require.Empty(t, FindRecords(parse(t, `{"mensaje": "sin datos"}`), ArticleContainers))
	require.Empty(t, FindRecords(parse(t, `"just a string"`), ArticleContainers))
	require.Empty(t, FindRecords(nil, ArticleContainers))
}

func TestFindRecordsCyclicPayload(t *testing.T) {
	// json decoding cannot produce cycles but hand-built payloads can
	inner := map[string]any{}
	outer := map[string]any{"data": inner}
	inner["parent"] = outer
	require.Empty(t, FindRecords(outer, ArticleContainers))
}

func TestPickFieldAliasVariants(t *testing.T) {
	// any single spelling of the id resolves, regardless of which alias
	// carried it or its casing
	for _, raw := range []string{
		`{"idArticulo": "142"}`,
		`{"ID_ARTICULO": "142"}`,
		`{"codigo": "142"}`,
		`{"Código": "142"}`,
		`{"CodArt": "142"}`,
	} {
		payload := parse(t, raw).(map[string]any)
		value, ok := PickField(Record(payload), AliasArticleID)
		require.True(t, ok, raw)
		require.Equal(t, "142", value, raw)
	}
}

func TestPickFieldSubstringFallback(t *testing.T) {
	rec := Record(parse(t, `{"Código de Artículo Proveedor": "55"}`).(map[string]any))
	value, ok := PickField(rec, AliasArticleID)
	require.True(t, ok)
	require.Equal(t, "55", value)
}

func TestPickFieldSkipsUnusableValues(t *testing.T) {
	rec := Record(parse(t, `{
		"idArticulo": null,
		"codigo": "",
		"articulo": {"nested": true},
		"id": "77"
	}`).(map[string]any))
	value, ok := PickField(rec, AliasArticleID)
	require.True(t, ok)
	require.Equal(t, "77", value)

	_, ok = PickField(Record{"idArticulo": nil}, AliasArticleID)
	require.False(t, ok)
}

func TestPickFloatToleratesStringNumbers(t *testing.T) {
	rec := Record(parse(t, `{"unidadesPorBulto": "12"}`).(map[string]any))
	value, ok := PickFloat(rec, AliasUnitsPerPack)
	require.True(t, ok)
	require.Equal(t, 12.0, value)
}

func TestRecordIDLeadingZeros(t *testing.T) {
	a := Record(parse(t, `{"CodArt": "000142"}`).(map[string]any))
	b := Record(parse(t, `{"idArticulo": "142"}`).(map[string]any))
	c := Record(parse(t, `{"idArticulo": "999"}`).(map[string]any))
	require.Equal(t, a.ID(), b.ID())
	require.NotEqual(t, a.ID(), c.ID())
}

func TestNormalizeArticle(t *testing.T) {
	rec := Record(parse(t, `{
		"idArticulo": 42,
		"desArticulo": "Yerba Mate",
		"unidadesPorBulto": 6,
		"codBarra": "7790000000001"
	}`).(map[string]any))
	units := 6.0
	want := Article{
		ID:           "42",
		Description:  "Yerba Mate",
		UnitsPerPack: &units,
		Barcode:      "7790000000001",
	}
	if diff := cmp.Diff(want, normalizeArticle(rec)); diff != "" {
		t.Fatalf("article mismatch (-want +got):\n%s", diff)
	}
}
