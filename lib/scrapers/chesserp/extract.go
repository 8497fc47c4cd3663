package chesserp

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"chessbridge-backend/lib/textutil"
)

// Record is one article/price/stock entry as it came off the wire, a
// read-only projection of the ERP's JSON. Field access goes through
// PickField so the caller never depends on a concrete key spelling.
type Record map[string]any

// maxDepth bounds the envelope search. The deepest shape seen in the wild is
// four levels (array of dataset wrappers around a named array of records).
const maxDepth = 12

// FindRecords locates the domain records inside an arbitrarily-shaped
// payload. At each object node, a node that looks like a record (any marker
// field resolves) is a leaf; otherwise the candidate container keys are
// tried case-insensitively before the remaining values are scanned. Arrays
// are flattened. Returns nil when nothing in the payload resembles a record.
func FindRecords(payload any, containerKeys []string) []Record {
	visited := map[uintptr]bool{}
	return findRecords(payload, containerKeys, visited, maxDepth)
}

func findRecords(node any, containerKeys []string, visited map[uintptr]bool, depth int) []Record {
	if depth <= 0 || node == nil {
		return nil
	}

	switch v := node.(type) {
	case []any:
		if !markVisited(visited, v) {
			return nil
		}
		var out []Record
		for _, elem := range v {
			out = append(out, findRecords(elem, containerKeys, visited, depth-1)...)
		}
		return out

	case map[string]any:
		if !markVisited(visited, v) {
			return nil
		}
		rec := Record(v)
		if looksLikeRecord(rec) {
			return []Record{rec}
		}

		matched := map[string]bool{}
		for _, key := range containerKeys {
			value, rawKey, ok := lookupKey(v, key)
			if !ok {
				continue
			}
			matched[rawKey] = true
			found := findRecords(value, containerKeys, visited, depth-1)
			if len(found) > 0 {
				return found
			}
		}
		// the records may be hiding under a key we have never seen;
		// scan whatever is left
		for rawKey, value := range v {
			if matched[rawKey] {
				continue
			}
			found := findRecords(value, containerKeys, visited, depth-1)
			if len(found) > 0 {
				return found
			}
		}
		return nil

	default:
		// primitive, nothing to descend into
		return nil
	}
}

// markVisited guards against cyclic structures. JSON decoding cannot build a
// cycle but payloads assembled in tests or by callers can.
func markVisited(visited map[uintptr]bool, container any) bool {
	ptr := reflect.ValueOf(container).Pointer()
	if visited[ptr] {
		return false
	}
	visited[ptr] = true
	return true
}

// looksLikeRecord only consults exact alias matches: substring matching
// would let envelope fields like "totalArticulos" promote a wrapper object
// to a record.
func looksLikeRecord(rec Record) bool {
	for _, group := range recordMarkers {
		if _, ok := pickFieldExact(rec, group); ok {
			return true
		}
	}
	return false
}

// PickField resolves a semantic field on a record: each alias is tried in
// order for an exact key match (case, accent and separator insensitive) with
// a usable scalar value, then the whole list is retried with substring
// containment so header-style keys like "Código de Artículo Proveedor"
// still resolve.
func PickField(rec Record, aliases FieldAliases) (any, bool) {
	if value, ok := pickFieldExact(rec, aliases); ok {
		return value, true
	}
	for _, alias := range aliases {
		want := textutil.NormalizeKey(alias)
		for key, value := range rec {
			if strings.Contains(textutil.NormalizeKey(key), want) && usableScalar(value) {
				return value, true
			}
		}
	}
	return nil, false
}

func pickFieldExact(rec Record, aliases FieldAliases) (any, bool) {
	for _, alias := range aliases {
		want := textutil.NormalizeKey(alias)
		for key, value := range rec {
			if textutil.NormalizeKey(key) == want && usableScalar(value) {
				return value, true
			}
		}
	}
	return nil, false
}

// PickString is PickField with the value rendered as a string, the form
// almost every caller wants for ids and descriptions.
func PickString(rec Record, aliases FieldAliases) string {
	value, ok := PickField(rec, aliases)
	if !ok {
		return ""
	}
	return scalarString(value)
}

// PickFloat resolves a numeric field, tolerating numbers shipped as strings.
func PickFloat(rec Record, aliases FieldAliases) (float64, bool) {
	value, ok := PickField(rec, aliases)
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// ID returns the record's article id in canonical comparison form
// (leading-zero and accent insensitive), or "" when no id alias resolves.
func (r Record) ID() string {
	raw := PickString(r, AliasArticleID)
	if raw == "" {
		return ""
	}
	return textutil.NormalizeID(raw)
}

func usableScalar(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case float64, bool, json.Number, int, int64:
		return true
	}
	return false
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return fmt.Sprintf("%v", value)
}

func lookupKey(m map[string]any, key string) (value any, rawKey string, ok bool) {
	want := textutil.NormalizeKey(key)
	for k, v := range m {
		if textutil.NormalizeKey(k) == want {
			return v, k, true
		}
	}
	return nil, "", false
}
