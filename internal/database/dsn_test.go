package database

import (
	"strings"
	"testing"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "defaults",
			cfg:  Config{User: "qualitree", Name: "qualitree"},
			want: "host=localhost port=5432 user=qualitree dbname=qualitree sslmode=disable",
		},
		{
			name: "options sorted and override sslmode",
			cfg: Config{
				User: "user", Name: "db", Host: "db.example.com", Port: 6543, Password: "pass",
				Options: map[string]string{"sslmode": "require", "search_path": "public"},
			},
			want: "host=db.example.com port=6543 user=user dbname=db password=pass search_path=public sslmode=require",
		},
		{
			name: "quotes passwords with spaces",
			cfg:  Config{User: "u", Name: "d", Password: "it's secret"},
			want: `host=localhost port=5432 user=u dbname=d password='it\'s secret' sslmode=disable`,
		},
		{
			name: "dsn override",
			cfg:  Config{DSN: "postgres://x@y/z"},
			want: "postgres://x@y/z",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := postgresDSN(tc.cfg)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMySQLDSNRoundTrips(t *testing.T) {
	dsn, err := mysqlDSN(Config{
		User:     "user",
		Password: "secret",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options:  map[string]string{"autocommit": "true"},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "user:secret@tcp(db.example.com:3307)/db?"), dsn)

	parsed, err := mysqldrv.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "db", parsed.DBName)
	require.True(t, parsed.ParseTime)
	require.Equal(t, time.Local, parsed.Loc)
	require.Equal(t, "true", parsed.Params["autocommit"])
}

func TestMySQLDSNDefaults(t *testing.T) {
	dsn, err := mysqlDSN(Config{User: "qualitree", Name: "qualitree"})
	require.NoError(t, err)

	parsed, err := mysqldrv.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:3306", parsed.Addr)
	require.Equal(t, "qualitree", parsed.User)
	require.Contains(t, dsn, "charset=utf8mb4")
}

func TestDSNRequiresUserAndName(t *testing.T) {
	_, err := postgresDSN(Config{})
	require.ErrorIs(t, err, errMissingCredentials)

	_, err = mysqlDSN(Config{Host: "localhost"})
	require.ErrorIs(t, err, errMissingCredentials)
}

func TestSQLiteDSN(t *testing.T) {
	first, inMemory, err := sqliteDSN(Config{Path: ":memory:"})
	require.NoError(t, err)
	require.True(t, inMemory)

	second, _, err := sqliteDSN(Config{})
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	dir := t.TempDir()
	fileDSN, inMemory, err := sqliteDSN(Config{Path: dir + "/nested/tree.sqlite"})
	require.NoError(t, err)
	require.False(t, inMemory)
	require.Contains(t, fileDSN, "nested/tree.sqlite")
	require.DirExists(t, dir+"/nested")
}
