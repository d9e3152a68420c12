package database

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

func sqliteDSN(cfg Config) (dsn string, inMemory bool, err error) {
	if cfg.DSN != "" {
		return cfg.DSN, strings.Contains(cfg.DSN, "mode=memory"), nil
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" || strings.EqualFold(path, ":memory:") {
		return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()), true, nil
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", false, fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	return "file:" + filepath.ToSlash(path) + "?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000", false, nil
}

// postgresDSN renders a libpq keyword/value connection string with sorted options.
func postgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", fmt.Errorf("postgres: %w", errMissingCredentials)
	}

	pairs := [][2]string{
		{"host", valueOr(cfg.Host, "localhost")},
		{"port", strconv.Itoa(portOr(cfg.Port, 5432))},
		{"user", cfg.User},
		{"dbname", cfg.Name},
	}
	if cfg.Password != "" {
		pairs = append(pairs, [2]string{"password", cfg.Password})
	}
	options := withDefaults(cfg.Options, map[string]string{"sslmode": "disable"})
	for _, key := range sortedKeys(options) {
		pairs = append(pairs, [2]string{key, options[key]})
	}

	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		parts = append(parts, pair[0]+"="+quoteLibpq(pair[1]))
	}
	return strings.Join(parts, " "), nil
}

// mysqlDSN builds the connection string through the driver's own formatter.
func mysqlDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", fmt.Errorf("mysql: %w", errMissingCredentials)
	}

	dsn := mysqldrv.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(valueOr(cfg.Host, "127.0.0.1"), strconv.Itoa(portOr(cfg.Port, 3306)))
	dsn.DBName = cfg.Name
	dsn.ParseTime = true
	dsn.Loc = time.Local
	dsn.Params = withDefaults(cfg.Options, map[string]string{"charset": "utf8mb4"})
	return dsn.FormatDSN(), nil
}

func withDefaults(options, defaults map[string]string) map[string]string {
	merged := make(map[string]string, len(options)+len(defaults))
	for key, value := range defaults {
		merged[key] = value
	}
	for key, value := range options {
		merged[key] = value
	}
	return merged
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func quoteLibpq(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}

func valueOr(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}

func portOr(port, fallback int) int {
	if port > 0 {
		return port
	}
	return fallback
}
