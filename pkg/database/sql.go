package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	sqlite "github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// SQLStore implements Store over gorm (SQLite or PostgreSQL)
type SQLStore struct {
	db      *gorm.DB
	dialect string
}

// OpenSQLite opens (or creates) a SQLite database file
func OpenSQLite(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." && !strings.Contains(path, ":memory:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		// SQLite serializes writers anyway
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	logger.Success(fmt.Sprintf("Base de datos SQLite abierta en %s", path), "DB")
	return &SQLStore{db: db, dialect: "sqlite"}, nil
}

// OpenPostgres connects to PostgreSQL with a DSN or postgres:// URL
func OpenPostgres(dsn string) (*SQLStore, error) {
	logger.System("Intentando conectar a PostgreSQL...", "DB")

	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		logger.Critical("Fallo al conectar con PostgreSQL.", "DB")
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxIdleTime(time.Hour)
	}

	logger.Success("Conectado exitosamente a PostgreSQL.", "DB")
	return &SQLStore{db: db, dialect: "postgres"}, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	}
}

// NewSQLStore wraps an already opened gorm handle
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db, dialect: db.Dialector.Name()}
}

// AutoMigrate creates the moderation tables in their current shape
func (s *SQLStore) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.BlockedWord{},
		&models.WarnRecord{},
		&models.AuditLogEntry{},
	)
}

// DB returns the underlying gorm handle
func (s *SQLStore) DB() *gorm.DB {
	return s.db
}

// Select returns the rows of table matching filters
func (s *SQLStore) Select(ctx context.Context, table string, filters Filters, opts ...SelectOption) ([]Row, error) {
	q := BuildSelectQuery(opts...)
	cols := sortedKeys(filters)
	if q.OrderBy != "" {
		cols = append(cols, q.OrderBy)
	}
	if err := checkIdentifiers(table, cols...); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx := s.db.WithContext(ctx).Table(table)
	if len(filters) > 0 {
		tx = tx.Where(map[string]interface{}(filters))
	}
	if q.OrderBy != "" {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.OrderBy}, Desc: q.Desc})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var raw []map[string]interface{}
	if err := tx.Find(&raw).Error; err != nil {
		return nil, classify(table, err)
	}

	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, Row(r))
	}
	return rows, nil
}

// Insert adds rows to table
func (s *SQLStore) Insert(ctx context.Context, table string, rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if err := checkIdentifiers(table, sortedKeys(row)...); err != nil {
			return err
		}
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	batch := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		batch = append(batch, map[string]interface{}(row))
	}
	if err := s.db.WithContext(ctx).Table(table).Create(&batch).Error; err != nil {
		return classify(table, err)
	}
	return nil
}

// Upsert inserts row or updates the row sharing its conflictKey values
func (s *SQLStore) Upsert(ctx context.Context, table string, row Row, conflictKey ...string) error {
	if err := checkIdentifiers(table, append(sortedKeys(row), conflictKey...)...); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	key := keyFilters(row, conflictKey)
	for _, v := range key {
		if v == nil {
			// NULLs never collide in a unique index, so ON CONFLICT cannot match them
			return classify(table, s.updateOrCreate(ctx, table, row, key))
		}
	}

	conflictCols := make([]clause.Column, 0, len(conflictKey))
	for _, c := range conflictKey {
		conflictCols = append(conflictCols, clause.Column{Name: c})
	}
	updateCols := make([]string, 0, len(row))
	for _, c := range sortedKeys(row) {
		if _, isKey := key[c]; !isKey {
			updateCols = append(updateCols, c)
		}
	}

	err := s.db.WithContext(ctx).Table(table).Clauses(clause.OnConflict{
		Columns:   conflictCols,
		DoUpdates: clause.AssignmentColumns(updateCols),
	}).Create(map[string]interface{}(row)).Error
	return classify(table, err)
}

func (s *SQLStore) updateOrCreate(ctx context.Context, table string, row Row, key Filters) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Table(table).Where(map[string]interface{}(key)).Updates(map[string]interface{}(row))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Table(table).Create(map[string]interface{}(row)).Error
	})
}

// Delete removes every row matching filters. Empty filters are rejected.
func (s *SQLStore) Delete(ctx context.Context, table string, filters Filters) error {
	if len(filters) == 0 {
		return gorm.ErrMissingWhereClause
	}
	cols := sortedKeys(filters)
	if err := checkIdentifiers(table, cols...); err != nil {
		return err
	}

	conds := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, c := range cols {
		if filters[c] == nil {
			conds = append(conds, c+" IS NULL")
			continue
		}
		conds = append(conds, c+" = ?")
		args = append(args, filters[c])
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// identifiers stay unquoted: SQLite reads an unknown "quoted" name as a string literal
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", table, strings.Join(conds, " AND "))
	if err := s.db.WithContext(ctx).Exec(query, args...).Error; err != nil {
		return classify(table, err)
	}
	return nil
}

// Status pings the database
func (s *SQLStore) Status(ctx context.Context) (string, bool) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return "🔴 | Desconectado", false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return "🔴 | Desconectado", false
	}
	return fmt.Sprintf("🟢 | En linea (%s)", s.dialect), true
}

// Close releases the connection pool
func (s *SQLStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	logger.Warn("La base de datos ha sido desconectada", "DB")
	return sqlDB.Close()
}

var (
	missingColumnPatterns = []*regexp.Regexp{
		regexp.MustCompile(`no such column: (?:\w+\.)?(\w+)`),
		regexp.MustCompile(`has no column named (\w+)`),
		regexp.MustCompile(`column "?(?:\w+\.)?(\w+)"? (?:of relation "\w+" )?does not exist`),
	}
)

// classify maps driver errors onto ErrSchemaMismatch and ErrConflict
func classify(table string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42703":
			return &SchemaMismatchError{Table: table, Column: missingColumn(pgErr.Message), Err: err}
		case "23505":
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	if col := missingColumn(msg); col != "" {
		return &SchemaMismatchError{Table: table, Column: col, Err: err}
	}
	return err
}

func missingColumn(msg string) string {
	for _, re := range missingColumnPatterns {
		if m := re.FindStringSubmatch(msg); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}
