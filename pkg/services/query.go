package services

import (
	"context"
	stdsql "database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func postgres() *sql.DialectBuilder {
	return sql.Dialect(dialect.Postgres)
}

// validID reports whether id can be stored in a UUID column. Malformed ids
// are treated as missing rather than surfacing a driver error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// columns qualifies each name with the table alias.
func columns(t *sql.SelectTable, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = t.C(n)
	}
	return out
}

// execUpdate runs a built UPDATE and maps "no rows" to ErrNotFound.
func execUpdate(ctx context.Context, db *stdsql.DB, u *sql.UpdateBuilder) error {
	query, args := u.Query()
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
