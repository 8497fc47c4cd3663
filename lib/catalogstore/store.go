package catalogstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chessbridge-backend/lib/scrapers/chesserp"
	"chessbridge-backend/lib/textutil"

	_ "modernc.org/sqlite"
)

// Store is the process-lifetime snapshot of the article catalog. It exists
// so autocomplete keystrokes hit a local table instead of re-walking the
// ERP's pagination; open it on ":memory:", nothing here should outlive the
// process.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

const refreshedAtKey = "refreshed_at"

// Replace swaps the whole snapshot for a fresh listing and stamps the
// refresh time. Insertion order is preserved for readers.
func (s Store) Replace(ctx context.Context, articles []chesserp.Article) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM articles`)
	if err != nil {
		return err
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (ord, id, description, units_per_pack, barcode, search_text)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer insert.Close()

	for i, a := range articles {
		var units any
		if a.UnitsPerPack != nil {
			units = *a.UnitsPerPack
		}
		searchText := textutil.Normalize(a.ID + " " + a.Description)
		_, err = insert.ExecContext(ctx, i, a.ID, a.Description, units, a.Barcode, searchText)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, refreshedAtKey, strconv.FormatInt(time.Now().Unix(), 10))
	if err != nil {
		return err
	}

	return tx.Commit()
}

// RefreshedAt reports when the snapshot was last replaced; the zero time
// means never.
func (s Store) RefreshedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = ?`, refreshedAtKey,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt %s value: %w", refreshedAtKey, err)
	}
	return time.Unix(unix, 0), nil
}

// Search returns up to `limit` articles whose id or description contains
// `query`, ignoring case and accents. An empty query returns the snapshot
// head.
func (s Store) Search(ctx context.Context, query string, limit int) ([]chesserp.Article, error) {
	if query == "" {
		return s.query(ctx, `
			SELECT id, description, units_per_pack, barcode
			FROM articles ORDER BY ord LIMIT ?
		`, limit)
	}
	needle := escapeLike(textutil.Normalize(query))
	return s.query(ctx, `
		SELECT id, description, units_per_pack, barcode
		FROM articles
		WHERE search_text LIKE '%' || ? || '%' ESCAPE '\'
		ORDER BY ord LIMIT ?
	`, needle, limit)
}

// All returns the entire snapshot in insertion order.
func (s Store) All(ctx context.Context) ([]chesserp.Article, error) {
	return s.query(ctx, `
		SELECT id, description, units_per_pack, barcode
		FROM articles ORDER BY ord
	`)
}

func (s Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	return count, err
}

func (s Store) query(ctx context.Context, stmt string, args ...any) ([]chesserp.Article, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chesserp.Article
	for rows.Next() {
		var a chesserp.Article
		var units sql.NullFloat64
		err = rows.Scan(&a.ID, &a.Description, &units, &a.Barcode)
		if err != nil {
			return nil, err
		}
		if units.Valid {
			a.UnitsPerPack = &units.Float64
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
