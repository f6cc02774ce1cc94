package repositories

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"plainEvents/internal/config"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/repositories/migrations"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNotFound возвращается, когда запись или термин не найдены.
var ErrNotFound = domain.ErrNotFound

const migrationTable = "schema_migrations"

// Repository — хранилище записей, метаданных и терминов поверх sqlx.
type Repository struct {
	DB     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// New открывает соединение по конфигу. Схему создаёт Migrate.
func New(logger *slog.Logger, cfg *config.Config) (*Repository, error) {
	op := "repository.New()"
	log := logger.With(slog.String("op", op))

	driver, dsn := dataSource(cfg.DBConfig)

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	r := NewWithDB(logger, db)

	log.Info("repository ready", slog.String("driver", driver))

	return r, nil
}

// NewWithDB оборачивает уже открытое соединение. Миграции не применяются.
func NewWithDB(logger *slog.Logger, db *sqlx.DB) *Repository {
	return &Repository{
		DB:     db,
		logger: logger,
		now:    time.Now,
	}
}

func dataSource(c config.DBConfig) (string, string) {
	if c.Driver == "postgres" {
		return "postgres", fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
		)
	}
	return "sqlite", c.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Migrate применяет встроенные миграции не более одного раза на файл.
func (r *Repository) Migrate(ctx context.Context) error {
	return applyMigrations(ctx, r.DB, migrations.FS)
}

func applyMigrations(ctx context.Context, db *sqlx.DB, migrationFS fs.FS) error {
	op := "repository.applyMigrations()"

	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("%s: read migrations dir: %w", op, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	createSQL := `CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
    name TEXT PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("%s: ensure migration table: %w", op, err)
	}

	for _, file := range files {
		var found int
		err := db.GetContext(ctx, &found, db.Rebind(`SELECT COUNT(*) FROM `+migrationTable+` WHERE name = ?`), file)
		if err != nil {
			return fmt.Errorf("%s: check migration %s: %w", op, file, err)
		}
		if found > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("%s: read migration %s: %w", op, file, err)
		}
		upSQL := extractUpMigration(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%s: begin %s: %w", op, file, err)
		}
		for _, stmt := range splitStatements(upSQL) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("%s: exec migration %s: %w", op, file, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`),
			file, time.Now().Unix(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%s: record migration %s: %w", op, file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%s: commit %s: %w", op, file, err)
		}
	}

	return nil
}

// extractUpMigration возвращает SQL из секции "-- +migrate Up".
func extractUpMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	downIdx := strings.Index(content, "-- +migrate Down")
	if downIdx == -1 {
		return content[upIdx+len("-- +migrate Up"):]
	}
	return content[upIdx+len("-- +migrate Up") : downIdx]
}

func splitStatements(sql string) []string {
	var out []string
	for _, stmt := range strings.Split(sql, ";") {
		if strings.TrimSpace(stmt) != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Shutdown закрывает соединение с БД.
func (r *Repository) Shutdown(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("force exit repository: %w", ctx.Err())
	default:
		return r.DB.Close()
	}
}
