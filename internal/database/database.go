// Package database はデータベース接続とスキーマ初期化を扱います。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"go-todo-slack/internal/config"
)

// Dialect はSQL方言です。
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect は DB_DRIVER の値を Dialect に変換します。
func ParseDialect(driver string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(driver))); d {
	case DialectMySQL, DialectPostgres, DialectSQLite:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %q", driver)
	}
}

// Rebind は "?" プレースホルダを方言に合わせて書き換えます。
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SupportsReturning は INSERT ... RETURNING を使うかどうかです。
func (d Dialect) SupportsReturning() bool {
	return d == DialectPostgres
}

// LockClause は行ロック用の句です。SQLite は書き込みを直列化するので不要です。
func (d Dialect) LockClause() string {
	if d == DialectSQLite {
		return ""
	}
	return " FOR UPDATE"
}

// CreateTableSQL は todos テーブルの CREATE 文です。
func (d Dialect) CreateTableSQL() string {
	switch d {
	case DialectMySQL:
		return `
		CREATE TABLE IF NOT EXISTS todos (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			text VARCHAR(255) NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	case DialectPostgres:
		return `
		CREATE TABLE IF NOT EXISTS todos (
			id SERIAL PRIMARY KEY,
			text VARCHAR(255) NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	default:
		// AUTOINCREMENT で削除済みIDを再利用しない
		return `
		CREATE TABLE IF NOT EXISTS todos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text VARCHAR(255) NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	}
}

// GetDSN は設定から接続文字列 (DSN) を構築します。
func GetDSN(cfg config.DatabaseConfig) (string, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return "", err
	}
	switch dialect {
	case DialectMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.Name
		mc.ParseTime = true
		return mc.FormatDSN(), nil
	case DialectPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Path:   "/" + cfg.Name,
		}
		if cfg.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
		}
		return u.String(), nil
	default:
		return cfg.Path + "?_busy_timeout=5000&_foreign_keys=on", nil
	}
}

// Open はデータベース接続を開きます (Ping はしません)。
func Open(cfg config.DatabaseConfig) (*sql.DB, Dialect, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, "", err
	}
	dsn, err := GetDSN(cfg)
	if err != nil {
		return nil, "", err
	}

	var db *sql.DB
	switch dialect {
	case DialectPostgres:
		connConfig, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, "", fmt.Errorf("could not parse postgres DSN: %w", err)
		}
		db = stdlib.OpenDB(*connConfig)
	case DialectMySQL:
		db, err = sql.Open("mysql", dsn)
	default:
		db, err = sql.Open("sqlite3", dsn)
	}
	if err != nil {
		return nil, "", fmt.Errorf("could not open database connection: %w", err)
	}

	if dialect == DialectSQLite {
		// :memory: はコネクション毎に別DBになるので1本に固定する
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	return db, dialect, nil
}

// InitDB はデータベース接続を初期化し、todos テーブルを作成します。
func InitDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, Dialect, error) {
	db, dialect, err := Open(cfg)
	if err != nil {
		return nil, "", err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("could not ping database: %w", err)
	}
	if err := EnsureSchema(ctx, db, dialect); err != nil {
		db.Close()
		return nil, "", err
	}
	log.Printf("Successfully connected to %s database!", dialect)
	return db, dialect, nil
}

// EnsureSchema は todos テーブルが無ければ作成します。
func EnsureSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if _, err := db.ExecContext(ctx, dialect.CreateTableSQL()); err != nil {
		return fmt.Errorf("could not create todos table: %w", err)
	}
	return nil
}
