package catalogstore

// search_text is the precomputed accent/case-folded haystack the
// autocomplete filter runs against; ord preserves upstream insertion order.
const Schema = `
CREATE TABLE IF NOT EXISTS articles (
    ord INTEGER PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL,
    units_per_pack REAL,
    barcode TEXT NOT NULL DEFAULT '',
    search_text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_search ON articles (search_text);

CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
