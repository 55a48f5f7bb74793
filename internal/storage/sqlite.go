package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"shopledger/internal/core"
	"shopledger/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteBackend opens stores over one SQLite database file.
type SQLiteBackend struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

// NewSQLiteBackend opens (creating if needed) the database at dbPath. The
// pool is capped at one connection so every statement shares one session.
func NewSQLiteBackend(dbPath string, logger *log.Logger) (*SQLiteBackend, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	b := &SQLiteBackend{
		db:     db,
		path:   dbPath,
		logger: logger.WithComponent(log.ComponentStorage),
	}
	b.logger.Debug("SQLite database opened", log.FieldDBPath, dbPath)
	return b, nil
}

func (b *SQLiteBackend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// OpenStore creates the table if it is missing and returns its store.
func (b *SQLiteBackend) OpenStore(ctx context.Context, schema Schema) (Store, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin create", schema.Table, err)
	}
	defer tx.Rollback()

	for _, stmt := range schema.createTableSQL() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, storageErr("create table", schema.Table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit create", schema.Table, err)
	}

	b.logger.DebugContext(ctx, "Table ready", log.FieldTable, schema.Table)
	return &sqliteStore{db: b.db, schema: schema, logger: b.logger}, nil
}

type sqliteStore struct {
	db     *sql.DB
	schema Schema
	logger *log.Logger
}

var _ Store = (*sqliteStore)(nil)

func (s *sqliteStore) Schema() Schema { return s.schema }

func (s *sqliteStore) table() string { return quoteIdent(s.schema.Table) }

func (s *sqliteStore) columnList() string {
	names := []string{quoteIdent(core.ColID)}
	for _, c := range s.schema.Columns {
		names = append(names, quoteIdent(c.Name))
	}
	return strings.Join(names, ", ")
}

// Create implements Store.
func (s *sqliteStore) Create(ctx context.Context, rec Record) (int64, error) {
	row, err := s.schema.normalize(rec, false)
	if err != nil {
		return 0, err
	}

	cols := make([]string, 0, len(s.schema.Columns))
	marks := make([]string, 0, len(s.schema.Columns))
	args := make([]any, 0, len(s.schema.Columns))
	for _, c := range s.schema.Columns {
		cols = append(cols, quoteIdent(c.Name))
		marks = append(marks, "?")
		args = append(args, row[c.Name])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table(), strings.Join(cols, ", "), strings.Join(marks, ", "))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storageErr("insert into", s.schema.Table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert into", s.schema.Table, err)
	}

	s.logger.DebugContext(ctx, "Record created", log.FieldTable, s.schema.Table, log.FieldRecordID, id)
	return id, nil
}

// Update implements Store.
func (s *sqliteStore) Update(ctx context.Context, id int64, changes Record) error {
	return s.Modify(ctx, id, func(Record) (Record, error) {
		return changes, nil
	})
}

// Modify implements Store. The read and the write share one transaction.
func (s *sqliteStore) Modify(ctx context.Context, id int64, fn func(current Record) (Record, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin update", s.schema.Table, err)
	}
	defer tx.Rollback()

	current, err := s.scanOne(id, tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", s.columnList(), s.table(), quoteIdent(core.ColID)), id))
	if err != nil {
		return err
	}

	changes, err := fn(current.clone())
	if err != nil {
		return err
	}
	row, err := s.schema.normalize(changes, true)
	if err != nil {
		return err
	}
	if len(row) == 0 {
		return nil
	}

	sets := make([]string, 0, len(row))
	args := make([]any, 0, len(row)+1)
	for _, c := range s.schema.Columns {
		v, ok := row[c.Name]
		if !ok {
			continue
		}
		sets = append(sets, quoteIdent(c.Name)+" = ?")
		args = append(args, v)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		s.table(), strings.Join(sets, ", "), quoteIdent(core.ColID))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return storageErr("update", s.schema.Table, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit update", s.schema.Table, err)
	}

	s.logger.DebugContext(ctx, "Record updated", log.FieldTable, s.schema.Table, log.FieldRecordID, id, log.FieldCount, len(row))
	return nil
}

// Delete implements Store.
func (s *sqliteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.table(), quoteIdent(core.ColID)), id)
	if err != nil {
		return storageErr("delete from", s.schema.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("delete from", s.schema.Table, err)
	}
	if n == 0 {
		return notFound(s.schema.Table, id)
	}

	s.logger.DebugContext(ctx, "Record deleted", log.FieldTable, s.schema.Table, log.FieldRecordID, id)
	return nil
}

// Get implements Store.
func (s *sqliteStore) Get(ctx context.Context, id int64) (Record, error) {
	return s.scanOne(id, s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", s.columnList(), s.table(), quoteIdent(core.ColID)), id))
}

// List implements Store.
func (s *sqliteStore) List(ctx context.Context, q Query) ([]Record, error) {
	where, args, err := s.whereClause(q)
	if err != nil {
		return nil, err
	}
	order := "ASC"
	if q.Order == DateDesc {
		order = "DESC"
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s %s, %s ASC",
		s.columnList(), s.table(), where, quoteIdent(core.ColDate), order, quoteIdent(core.ColID))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("select from", s.schema.Table, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("select from", s.schema.Table, err)
	}
	return out, nil
}

// Sum implements Store. The column is added up here rather than with SUM(),
// which works in float64 and drifts from the values List returns.
func (s *sqliteStore) Sum(ctx context.Context, column string, q Query) (decimal.Decimal, error) {
	if _, err := s.schema.numericColumn(column); err != nil {
		return decimal.Zero, err
	}
	where, args, err := s.whereClause(q)
	if err != nil {
		return decimal.Zero, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s", quoteIdent(column), s.table(), where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, storageErr("sum over", s.schema.Table, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var v realValue
		if err := rows.Scan(&v); err != nil {
			return decimal.Zero, storageErr("sum over", s.schema.Table, err)
		}
		total = total.Add(v.d)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, storageErr("sum over", s.schema.Table, err)
	}
	return total, nil
}

func (s *sqliteStore) whereClause(q Query) (string, []any, error) {
	if err := s.schema.checkWhere(q.Where); err != nil {
		return "", nil, err
	}
	var conditions []string
	var args []any
	if q.From != "" {
		conditions = append(conditions, quoteIdent(core.ColDate)+" >= ?")
		args = append(args, q.From)
	}
	if q.To != "" {
		conditions = append(conditions, quoteIdent(core.ColDate)+" <= ?")
		args = append(args, q.To)
	}
	// Walk the schema rather than the map for a stable statement text.
	for _, c := range s.schema.Columns {
		v, ok := q.Where[c.Name]
		if !ok {
			continue
		}
		cv, err := c.convert(v)
		if err != nil {
			return "", nil, err
		}
		conditions = append(conditions, quoteIdent(c.Name)+" = ?")
		args = append(args, cv)
	}
	if len(conditions) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *sqliteStore) scanOne(id int64, row *sql.Row) (Record, error) {
	rec, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(s.schema.Table, id)
	}
	return rec, err
}

func (s *sqliteStore) scan(row rowScanner) (Record, error) {
	var id int64
	dest := []any{&id}
	texts := make(map[string]*string)
	nums := make(map[string]*realValue)
	for _, c := range s.schema.Columns {
		if c.Type == Real {
			d := new(realValue)
			nums[c.Name] = d
			dest = append(dest, d)
		} else {
			t := new(string)
			texts[c.Name] = t
			dest = append(dest, t)
		}
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storageErr("scan", s.schema.Table, err)
	}

	rec := Record{core.ColID: id}
	for name, t := range texts {
		rec[name] = *t
	}
	for name, d := range nums {
		rec[name] = d.d
	}
	return rec, nil
}

// realValue scans a REAL column into a decimal. SQLite keeps a number as
// TEXT when REAL would lose digits, so text is parsed exactly. Non-finite
// floats are an error.
type realValue struct {
	d decimal.Decimal
}

func (r *realValue) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		r.d = decimal.Zero
	case int64:
		r.d = decimal.NewFromInt(v)
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("non-finite number %v", v)
		}
		r.d = decimal.NewFromFloat(v)
	case string:
		return r.parse(v)
	case []byte:
		return r.parse(string(v))
	default:
		return fmt.Errorf("unexpected numeric value of type %T", src)
	}
	return nil
}

func (r *realValue) parse(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("bad numeric text %q: %w", s, err)
	}
	r.d = d
	return nil
}
