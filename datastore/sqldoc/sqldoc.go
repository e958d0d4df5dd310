/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqldoc

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/suparena/softdelete/datastore"
	"github.com/suparena/softdelete/errors"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// Store implements datastore.Store on one table of JSON documents.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
	schema  *datastore.Schema
	log     zerolog.Logger
}

var _ datastore.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// OpenSQLite opens a SQLite database with a single connection, WAL
// journaling and a busy timeout.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One writer at a time avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return db, nil
}

// OpenPostgres creates a pgx pool and exposes it through database/sql.
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	config.MaxConns = 25

	// PgBouncer transaction pooling cannot hold prepared statements.
	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return stdlib.OpenDBFromPool(pool), nil
}

// New serves the collection stored in table. Call CreateTable before first
// use.
func New(db *sql.DB, dialect Dialect, table string, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		table:   table,
		schema:  datastore.NewSchema(datastore.TypeString),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("collection", table).Str("dialect", dialect.Name()).Logger()
	return s
}

func (s *Store) Name() string {
	return s.table
}

func (s *Store) Schema() *datastore.Schema {
	return s.schema
}

// CreateTable creates the collection table if it does not exist.
func (s *Store) CreateTable(ctx context.Context) error {
	for _, stmt := range s.dialect.CreateTable(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", s.table, err)
		}
	}
	return nil
}

// Count counts matching documents, honoring skip and limit.
func (s *Store) Count(ctx context.Context, q *datastore.Query) (int64, error) {
	c := newCompiler(s.dialect)
	w, err := c.where(q.Predicates()...)
	if err != nil {
		return 0, err
	}

	inner := "SELECT 1 FROM " + quoteIdent(s.table) + whereClause(w)
	if paging := s.dialect.Paging(q.Options.Limit, q.Options.Skip); paging != "" {
		inner += " " + paging
	}

	var n int64
	stmt := "SELECT COUNT(*) FROM (" + inner + ") AS matched"
	if err := s.db.QueryRowContext(ctx, stmt, c.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return n, nil
}

// Find returns matching documents.
func (s *Store) Find(ctx context.Context, q *datastore.Query) ([]datastore.Document, error) {
	rows, err := s.query(ctx, s.db, q.Predicates(), q.Options, false)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanAll(rows)
}

// FindOne returns the first matching document.
func (s *Store) FindOne(ctx context.Context, q *datastore.Query) (datastore.Document, error) {
	opts := q.Options
	opts.Limit = 1
	rows, err := s.query(ctx, s.db, q.Predicates(), opts, false)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs, err := s.scanAll(rows)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.NewNotFoundError(s.Name(), q.Filter.String())
	}
	return docs[0], nil
}

// Update patches the first match, or every match with opts.Multi, inside a
// transaction.
func (s *Store) Update(ctx context.Context, conds filter.Conditions, patch datastore.Patch, opts storagemodels.UpdateOptions) (storagemodels.UpdateResult, error) {
	var limit int64 = 1
	if opts.Multi {
		limit = 0
	}

	docs, err := s.patchMatching(ctx, conds, patch, limit)
	if err != nil {
		return storagemodels.UpdateResult{}, err
	}
	result := storagemodels.UpdateResult{Matched: int64(len(docs)), Modified: int64(len(docs))}

	if result.Matched == 0 && opts.Upsert {
		patch, err := s.schema.CastPatch(patch)
		if err != nil {
			return result, err
		}
		doc, err := s.Insert(ctx, datastore.UpsertDocument(conds, patch))
		if err != nil {
			return result, err
		}
		result.UpsertedID, _ = doc.ID()
	}
	return result, nil
}

// FindOneAndUpdate patches the first match and returns it after the update.
func (s *Store) FindOneAndUpdate(ctx context.Context, conds filter.Conditions, patch datastore.Patch) (datastore.Document, error) {
	docs, err := s.patchMatching(ctx, conds, patch, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.NewNotFoundError(s.Name(), conds.String())
	}
	return docs[0], nil
}

// FindByIDAndUpdate patches the document with the given identifier.
func (s *Store) FindByIDAndUpdate(ctx context.Context, id any, patch datastore.Patch) (datastore.Document, error) {
	id, err := datastore.CastValue(datastore.IDField, s.schema.IDType(), id)
	if err != nil {
		return nil, err
	}
	return s.FindOneAndUpdate(ctx, filter.Conditions{datastore.IDField: id}, patch)
}

// patchMatching selects up to limit matching rows (all with limit 0),
// applies the patch to each and writes it back. The updated documents are
// returned.
func (s *Store) patchMatching(ctx context.Context, conds filter.Conditions, patch datastore.Patch, limit int64) ([]datastore.Document, error) {
	patch, err := s.schema.CastPatch(patch)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("no updates provided")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := s.query(ctx, tx, []filter.Conditions{conds}, storagemodels.FindOptions{Limit: limit}, true)
	if err != nil {
		return nil, err
	}
	docs, err := s.scanAll(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		patch.Apply(doc)
		if err := s.write(ctx, tx, doc); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	if len(docs) > 0 {
		s.log.Debug().Int("count", len(docs)).Msg("updated documents")
	}
	return docs, nil
}

func (s *Store) write(ctx context.Context, tx *sql.Tx, doc datastore.Document) error {
	text, err := encode(doc)
	if err != nil {
		return err
	}
	c := newCompiler(s.dialect)
	stmt := fmt.Sprintf("UPDATE %s SET doc = %s WHERE id = %s",
		quoteIdent(s.table), s.dialect.DocParam(c.rawBind(text)), c.rawBind(doc.IDString()))
	if _, err := tx.ExecContext(ctx, stmt, c.args...); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	return nil
}

// Insert stores a new document, generating a UUID identifier when missing.
func (s *Store) Insert(ctx context.Context, doc datastore.Document) (datastore.Document, error) {
	doc = doc.Clone()
	if doc == nil {
		doc = datastore.Document{}
	}
	if _, ok := doc.ID(); !ok {
		doc[datastore.IDField] = uuid.NewString()
	}
	if err := s.schema.PrepareInsert(ctx, doc); err != nil {
		return nil, err
	}

	text, err := encode(doc)
	if err != nil {
		return nil, err
	}
	c := newCompiler(s.dialect)
	stmt := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES (%s, %s)",
		quoteIdent(s.table), c.rawBind(doc.IDString()), s.dialect.DocParam(c.rawBind(text)))
	if _, err := s.db.ExecContext(ctx, stmt, c.args...); err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return nil, errors.NewAlreadyExistsError(s.Name(), doc.IDString())
		}
		return nil, fmt.Errorf("insert failed: %w", err)
	}
	return doc, nil
}

// Replace overwrites the stored document with the same identifier.
func (s *Store) Replace(ctx context.Context, doc datastore.Document) error {
	if _, ok := doc.ID(); !ok {
		return errors.NewValidationError(datastore.IDField, "document has no identifier")
	}
	stored := doc.Clone()
	for k, v := range stored {
		cast, err := s.schema.Cast(k, v)
		if err != nil {
			return err
		}
		stored[k] = cast
	}

	text, err := encode(stored)
	if err != nil {
		return err
	}
	c := newCompiler(s.dialect)
	stmt := fmt.Sprintf("UPDATE %s SET doc = %s WHERE id = %s",
		quoteIdent(s.table), s.dialect.DocParam(c.rawBind(text)), c.rawBind(stored.IDString()))
	res, err := s.db.ExecContext(ctx, stmt, c.args...)
	if err != nil {
		return fmt.Errorf("replace failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace failed: %w", err)
	}
	if n == 0 {
		return errors.NewNotFoundError(s.Name(), stored.IDString())
	}
	return nil
}

// EnsureIndexes creates an expression index per indexed schema field.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, f := range s.schema.IndexedFields() {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s ((%s))",
			quoteIdent(indexName(s.table, f.Name)), quoteIdent(s.table), s.dialect.Field(f.Name))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", f.Name, err)
		}
		s.log.Info().Str("field", f.Name).Msg("ensured index")
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) query(ctx context.Context, db queryer, preds []filter.Conditions, opts storagemodels.FindOptions, lock bool) (*sql.Rows, error) {
	stmt, args, err := s.selectStatement(preds, opts, lock)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("find failed: %w", err)
	}
	return rows, nil
}

func (s *Store) selectStatement(preds []filter.Conditions, opts storagemodels.FindOptions, lock bool) (string, []any, error) {
	c := newCompiler(s.dialect)
	w, err := c.where(preds...)
	if err != nil {
		return "", nil, err
	}

	parts := []string{
		"SELECT " + s.dialect.DocColumn() + " FROM " + quoteIdent(s.table) + whereClause(w),
		c.orderBy(opts.Sort),
	}
	if paging := s.dialect.Paging(opts.Limit, opts.Skip); paging != "" {
		parts = append(parts, paging)
	}
	stmt := strings.Join(parts, " ")
	if lock {
		stmt += s.dialect.ForUpdate()
	}
	return stmt, c.args, nil
}

func (s *Store) scanAll(rows *sql.Rows) ([]datastore.Document, error) {
	var docs []datastore.Document
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		doc, err := s.decode(text)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return docs, nil
}

// decode parses stored JSON and casts declared fields back to their types.
func (s *Store) decode(text string) (datastore.Document, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	doc := datastore.Document(m)
	for k, v := range doc {
		cast, err := s.schema.Cast(k, v)
		if err != nil {
			return nil, err
		}
		doc[k] = cast
	}
	return doc, nil
}

func encode(doc datastore.Document) (string, error) {
	data, err := json.Marshal(toStorable(doc))
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(data), nil
}

func whereClause(w string) string {
	if w == "" {
		return ""
	}
	return " WHERE " + w
}
