package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// uniqueViolation reports whether err comes from a unique index rejecting a
// write. Native driver errors are matched when gorm did not translate them.
func uniqueViolation(err error) bool {
	var (
		pgErr *pgconn.PgError
		myErr *mysql.MySQLError
	)
	switch {
	case err == nil:
		return false
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return true
	case errors.As(err, &pgErr):
		return pgErr.Code == pgUniqueViolation
	case errors.As(err, &myErr):
		return myErr.Number == mysqlDuplicateEntry
	default:
		return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
	}
}
