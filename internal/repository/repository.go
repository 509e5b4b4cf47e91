package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/config"
	"modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
	driver string
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	driver := cfg.Database.Driver
	if driver == "" {
		driver = DriverPostgres
	}

	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
		driver: driver,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// 查询统一使用 $1 形式的占位符，sqlite 下改写为等价的 ?1
func (r *Repository) rebind(query string) string {
	if r.driver != DriverSQLite {
		return query
	}
	return placeholderRe.ReplaceAllString(query, "?$1")
}

// Migrate 按文件名顺序执行尚未执行过的迁移脚本
func (r *Repository) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (filename TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("无法创建迁移记录表: %w", err)
	}

	dir := "migrations/" + r.driver
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("不支持的数据库驱动 %q: %w", r.driver, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		applied := false
		query := r.rebind(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = $1)`)
		if err := r.dbpool.QueryRowContext(ctx, query, file).Scan(&applied); err != nil {
			return fmt.Errorf("无法查询迁移 %s: %w", file, err)
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, dir+"/"+file)
		if err != nil {
			return err
		}

		if err := r.applyMigration(ctx, file, string(content)); err != nil {
			return fmt.Errorf("执行迁移 %s 失败: %w", file, err)
		}
	}

	return nil
}

func (r *Repository) applyMigration(ctx context.Context, file string, content string) error {
	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, content); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, r.rebind(`INSERT INTO schema_migrations (filename) VALUES ($1)`), file); err != nil {
		return err
	}

	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
	}

	return false
}

// nullableTime 兼容不同驱动返回的时间类型
type nullableTime struct {
	t *time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func (n nullableTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n.t = time.Time{}
		return nil
	case time.Time:
		*n.t = v
		return nil
	case int64:
		*n.t = time.Unix(v, 0).UTC()
		return nil
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	default:
		return fmt.Errorf("无法将 %T 转换为时间", src)
	}
}

func (n nullableTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*n.t = t
			return nil
		}
	}
	return fmt.Errorf("无法解析时间 %q", s)
}
