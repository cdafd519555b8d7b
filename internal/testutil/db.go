package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/target/knowlio-web/internal/migrate"
)

// DBConfig locates the Postgres instance used by repository tests.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DBConfigFromEnv reads TEST_DB_* variables. The default port 55432 is the
// compose test profile; CI sets TEST_DB_PORT=5432.
func DBConfigFromEnv() DBConfig {
	return DBConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "55432"),
		User:     envOr("TEST_DB_USER", "knowlio"),
		Password: envOr("TEST_DB_PASSWORD", "knowlio"),
		DBName:   envOr("TEST_DB_NAME", "knowlio"),
	}
}

// DSN renders the config as a pgx URL. A non-empty schema is put first on
// the search_path.
func (c DBConfig) DSN(schema string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.DBName,
	}
	q := url.Values{"sslmode": {envOr("DB_SSL_MODE", "disable")}}
	if schema != "" {
		q.Set("search_path", schema+",public")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// WithAutoDB runs fn against a migrated schema private to this test. The
// test is skipped when Postgres is unreachable unless TEST_REQUIRE_DB or
// TEST_REQUIRE_INFRA is set.
func WithAutoDB(t testing.TB, fn func(*sql.DB)) {
	t.Helper()
	fn(openSchemaDB(t))
}

func openSchemaDB(t testing.TB) *sql.DB {
	t.Helper()
	cfg := DBConfigFromEnv()

	admin := pingDB(t, cfg.DSN(""))
	schema := newSchemaName()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		_ = admin.Close()
		t.Fatalf("create schema %s: %v", schema, err)
	}

	db, err := sql.Open("pgx", cfg.DSN(schema))
	if err != nil {
		_ = admin.Close()
		t.Fatalf("open schema %s: %v", schema, err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close()
		if _, err := admin.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		_ = admin.Close()
	})

	if err := migrate.Run(ctx, db); err != nil {
		t.Fatalf("migrate schema %s: %v", schema, err)
	}
	return db
}

// pingDB opens dsn or skips the test when the server is down.
func pingDB(t testing.TB, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("pgx", dsn)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err != nil {
			_ = db.Close()
		}
	}
	if err != nil {
		if required("TEST_REQUIRE_DB") {
			t.Fatalf("test database not available: %v", err)
		}
		t.Skipf("test database not available: %v", err)
	}
	return db
}

func newSchemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t_%d", time.Now().UnixNano())
	}
	return "t_" + hex.EncodeToString(b)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// required reports whether a missing dependency should fail instead of skip.
func required(key string) bool {
	return envBool(key) || envBool("TEST_REQUIRE_INFRA")
}
