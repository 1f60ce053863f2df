package sql

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505) — the race-safety net behind the
// (stream_id, version) unique index when two writers slip past the
// SELECT ... FOR UPDATE lock.
func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == "23505"
}
