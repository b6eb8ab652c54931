package persistence

import "strconv"

// Dialect captures the SQL differences between the supported state databases.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Placeholder returns the bind parameter marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Upsert returns the conflict clause that overwrites column on key collision.
func (d Dialect) Upsert(key string, columns ...string) string {
	clause := " ON CONFLICT (" + key + ") DO UPDATE SET "
	for i, col := range columns {
		if i > 0 {
			clause += ", "
		}
		clause += col + " = excluded." + col
	}
	return clause
}
