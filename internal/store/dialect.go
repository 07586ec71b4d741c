package store

import (
	"fmt"
	"strconv"
	"strings"
)

// dialect captures the differences between the supported relational media.
// Only generic table operations are used, so the differences reduce to
// placeholder syntax and integer column types.
type dialect struct {
	driver  string
	intType string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "sqlite3":
		return dialect{driver: "sqlite3", intType: "INTEGER"}, nil
	case "postgres":
		return dialect{driver: "postgres", intType: "BIGINT"}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

// rebind converts ?-style placeholders to the driver's syntax.
func (d dialect) rebind(query string) string {
	if d.driver != "postgres" {
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

// placeholders returns a comma-separated placeholder list for n values.
func (d dialect) placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if d.driver == "postgres" {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(i + 1))
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
