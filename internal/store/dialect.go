package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect selects the SQL flavour and driver behind a database URL.
type Dialect int

const (
	// SQLite stores timestamps as fixed-width UTC text and uses ? placeholders.
	SQLite Dialect = iota
	// Postgres stores timestamps as TIMESTAMPTZ and uses $n placeholders.
	Postgres
)

// sqliteTimeLayout keeps every stored timestamp the same width so text order
// matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrUnsupportedScheme reports a database URL no dialect can serve.
var ErrUnsupportedScheme = errors.New("unsupported database scheme")

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return "Dialect(" + strconv.Itoa(int(d)) + ")"
	}
}

// Target is a parsed database URL.
type Target struct {
	Dialect Dialect
	// Driver is the database/sql driver name.
	Driver string
	// DSN is passed to sql.Open.
	DSN string
	// Path is the database file for sqlite targets, empty for in-memory ones.
	Path string
}

// ParseURL maps a database URL onto a dialect. postgres:// and postgresql://
// select Postgres; sqlite://, file: and bare paths select SQLite.
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, errors.New("empty database url")
	}
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Target{Dialect: Postgres, Driver: "postgres", DSN: raw}, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return sqliteTarget(raw[len("sqlite://"):])
	case strings.HasPrefix(lower, "file:"):
		return sqliteTarget(raw)
	case strings.Contains(raw, "://"):
		scheme := raw[:strings.Index(raw, "://")]
		return Target{}, fmt.Errorf("%w %q", ErrUnsupportedScheme, scheme)
	default:
		return sqliteTarget(raw)
	}
}

func sqliteTarget(dsn string) (Target, error) {
	if dsn == "" {
		return Target{}, errors.New("sqlite url has no path")
	}
	path, query, _ := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")
	if path == ":memory:" || strings.Contains(query, "mode=memory") {
		path = ""
	}
	if !strings.Contains(query, "foreign_keys") {
		sep := "?"
		if query != "" {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)"
	}
	return Target{Dialect: SQLite, Driver: "sqlite", DSN: dsn, Path: path}, nil
}

// Rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) timeValue(t time.Time) any {
	if d == SQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// parseTime reads back a stored timestamp. Postgres values arrive as
// RFC 3339 text once scanned into a string.
func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", value, err)
	}
	return t.UTC(), nil
}
