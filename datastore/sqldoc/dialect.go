/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqldoc

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Dialect adapts the document store to one SQL engine's JSON functions.
type Dialect interface {
	Name() string

	// Placeholder returns the n-th (1-based) bind parameter marker.
	Placeholder(n int) string

	// Field extracts a dotted document path. A missing path yields NULL.
	Field(path string) string

	// Presence yields NULL only when the path is missing, even if the stored
	// value is null.
	Presence(path string) string

	// IsNull matches a missing path or a stored null.
	IsNull(path string) string

	// Param converts a storable value into a bind argument and the
	// expression comparing it against Field.
	Param(v any, placeholder string) (arg any, expr string, err error)

	// DocColumn selects the document as text.
	DocColumn() string

	// DocParam wraps the placeholder receiving document text.
	DocParam(placeholder string) string

	CreateTable(table string) []string

	Paging(limit, skip int64) string

	ForUpdate() string

	IsUniqueViolation(err error) bool
}

// Postgres stores documents as JSONB and compares them with jsonb operators.
func Postgres() Dialect { return postgresDialect{} }

// SQLite stores documents as JSON text and reads them with json_extract.
func SQLite() Dialect { return sqliteDialect{} }

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) Field(path string) string {
	var b strings.Builder
	b.WriteString("doc")
	for _, part := range strings.Split(path, ".") {
		b.WriteString("->")
		b.WriteString(quoteLiteral(part))
	}
	return b.String()
}

func (d postgresDialect) Presence(path string) string { return d.Field(path) }

func (d postgresDialect) IsNull(path string) string {
	f := d.Field(path)
	return fmt.Sprintf("(%s IS NULL OR %s = 'null'::jsonb)", f, f)
}

func (postgresDialect) Param(v any, placeholder string) (any, string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return string(data), placeholder + "::jsonb", nil
}

func (postgresDialect) DocColumn() string { return "doc::text" }

func (postgresDialect) DocParam(placeholder string) string { return placeholder + "::jsonb" }

func (postgresDialect) CreateTable(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	doc JSONB NOT NULL
)`, quoteIdent(table))}
}

func (postgresDialect) Paging(limit, skip int64) string {
	var parts []string
	if limit > 0 {
		parts = append(parts, fmt.Sprintf("LIMIT %d", limit))
	}
	if skip > 0 {
		parts = append(parts, fmt.Sprintf("OFFSET %d", skip))
	}
	return strings.Join(parts, " ")
}

func (postgresDialect) ForUpdate() string { return " FOR UPDATE" }

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		// 23505 = unique_violation
		return pgErr.Code == "23505"
	}
	return false
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) Field(path string) string {
	return "json_extract(doc, " + quoteLiteral(jsonPath(path)) + ")"
}

func (sqliteDialect) Presence(path string) string {
	return "json_type(doc, " + quoteLiteral(jsonPath(path)) + ")"
}

// json_extract maps a stored null and a missing path to NULL alike.
func (d sqliteDialect) IsNull(path string) string {
	return d.Field(path) + " IS NULL"
}

// Param binds scalars natively. Objects and arrays compare as the minified
// JSON text json_extract returns for them.
func (sqliteDialect) Param(v any, placeholder string) (any, string, error) {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode %T: %w", v, err)
		}
		return string(data), placeholder, nil
	}
	return v, placeholder, nil
}

func (sqliteDialect) DocColumn() string { return "doc" }

func (sqliteDialect) DocParam(placeholder string) string { return placeholder }

func (sqliteDialect) CreateTable(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	doc TEXT NOT NULL
)`, quoteIdent(table))}
}

func (sqliteDialect) Paging(limit, skip int64) string {
	switch {
	case limit > 0 && skip > 0:
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, skip)
	case limit > 0:
		return fmt.Sprintf("LIMIT %d", limit)
	case skip > 0:
		return fmt.Sprintf("LIMIT -1 OFFSET %d", skip)
	}
	return ""
}

func (sqliteDialect) ForUpdate() string { return "" }

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var sqErr sqlite3.Error
	if stderrors.As(err, &sqErr) {
		return sqErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

var plainKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func jsonPath(path string) string {
	var b strings.Builder
	b.WriteByte('$')
	for _, part := range strings.Split(path, ".") {
		b.WriteByte('.')
		if plainKey.MatchString(part) {
			b.WriteString(part)
		} else {
			b.WriteString(strconv.Quote(part))
		}
	}
	return b.String()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9_]+`)

func indexName(table, field string) string {
	return nonIdent.ReplaceAllString(table+"_"+field, "_") + "_idx"
}
