package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/cleared-dev/budget/internal/model"
)

// dialect captures the differences between the SQL backends.
type dialect struct {
	driverName   string
	records      string
	descriptions string
	numbered     bool // $1 placeholders instead of ?
}

var (
	sqliteDialect = dialect{
		driverName:   "sqlite",
		records:      "records",
		descriptions: "description_information",
	}
	postgresDialect = dialect{
		driverName:   "postgres",
		records:      "budget.records",
		descriptions: "budget.description_information",
		numbered:     true,
	}
)

func (d dialect) placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		if d.numbered {
			ps[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ps[i] = "?"
		}
	}
	return strings.Join(ps, ", ")
}

func (d dialect) insertRecordSQL() string {
	return fmt.Sprintf("INSERT INTO %s (batch_id, amount, date, card, description, event_time) VALUES (%s)",
		d.records, d.placeholders(6))
}

func (d dialect) insertDescriptionSQL() string {
	return fmt.Sprintf("INSERT INTO %s (description, primary_information, secondary_information, tertiary_information, additional_information, event_time) VALUES (%s)",
		d.descriptions, d.placeholders(6))
}

func (d dialect) selectDescriptionsSQL() string {
	return fmt.Sprintf("SELECT description, primary_information, secondary_information, tertiary_information, additional_information FROM %s ORDER BY description",
		d.descriptions)
}

func (d dialect) selectRecordDescriptionsSQL() string {
	return fmt.Sprintf("SELECT DISTINCT description FROM %s ORDER BY description", d.records)
}

// SQLStore is a Store backed by database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	batchID uuid.UUID
	now     func() time.Time
}

// OpenSQLite opens (creating if needed) a sqlite database file and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return openSQL(ctx, sqliteDialect, path)
}

// OpenPostgres connects to a postgres database and migrates it.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	return openSQL(ctx, postgresDialect, dsn)
}

func openSQL(ctx context.Context, d dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.driverName, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(d, dsn); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLStore{
		db:      db,
		dialect: d,
		batchID: uuid.New(),
		now:     time.Now,
	}, nil
}

// BatchID implements Store.
func (s *SQLStore) BatchID() uuid.UUID { return s.batchID }

// Close implements Store.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InsertTransactions implements Store. All rows are written in one
// database transaction.
func (s *SQLStore) InsertTransactions(ctx context.Context, txns []model.Transaction) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}
	eventTime := s.now().UTC()
	err := s.inTx(ctx, s.dialect.insertRecordSQL(), func(stmt *sql.Stmt) error {
		for i, t := range txns {
			_, err := stmt.ExecContext(ctx,
				s.batchID.String(),
				t.Amount.String(),
				t.Date.Format("2006-01-02"),
				string(t.Card),
				t.Description,
				eventTime,
			)
			if err != nil {
				return fmt.Errorf("insert record %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("insert transactions: %w", err)
	}
	return len(txns), nil
}

// InsertDescriptions implements Store.
func (s *SQLStore) InsertDescriptions(ctx context.Context, mds []model.DescriptionMetadata) (int, error) {
	if len(mds) == 0 {
		return 0, nil
	}
	eventTime := s.now().UTC()
	err := s.inTx(ctx, s.dialect.insertDescriptionSQL(), func(stmt *sql.Stmt) error {
		for _, md := range mds {
			_, err := stmt.ExecContext(ctx,
				md.Description,
				nullString(md.Primary),
				nullString(md.Secondary),
				nullString(md.Tertiary),
				nullString(md.Additional),
				eventTime,
			)
			if err != nil {
				return fmt.Errorf("insert description %q: %w", md.Description, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("insert descriptions: %w", err)
	}
	return len(mds), nil
}

// SelectDescriptions implements Store.
func (s *SQLStore) SelectDescriptions(ctx context.Context) ([]model.DescriptionMetadata, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.selectDescriptionsSQL())
	if err != nil {
		return nil, fmt.Errorf("query descriptions: %w", err)
	}
	defer rows.Close()

	var out []model.DescriptionMetadata
	for rows.Next() {
		var (
			md                   model.DescriptionMetadata
			primary, secondary   sql.NullString
			tertiary, additional sql.NullString
		)
		if err := rows.Scan(&md.Description, &primary, &secondary, &tertiary, &additional); err != nil {
			return nil, fmt.Errorf("scan description: %w", err)
		}
		md.Primary = stringPtr(primary)
		md.Secondary = stringPtr(secondary)
		md.Tertiary = stringPtr(tertiary)
		md.Additional = stringPtr(additional)
		out = append(out, md)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptions: %w", err)
	}
	return out, nil
}

// SelectRecordDescriptions implements Store.
func (s *SQLStore) SelectRecordDescriptions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.selectRecordDescriptionsSQL())
	if err != nil {
		return nil, fmt.Errorf("query record descriptions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var desc string
		if err := rows.Scan(&desc); err != nil {
			return nil, fmt.Errorf("scan record description: %w", err)
		}
		out = append(out, desc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record descriptions: %w", err)
	}
	return out, nil
}

func (s *SQLStore) inTx(ctx context.Context, query string, fn func(*sql.Stmt) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	if err = fn(stmt); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
