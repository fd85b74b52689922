package vectorstore

import (
	"context"
	"fmt"
)

// QueryRow is one result row of RawQuery, stringified for CSV output.
type QueryRow struct {
	Columns []string
	Values  []string
}

// RawQuery executes a caller-supplied read query and returns its result
// stringified, backing the SQL-to-scratch-CSV extraction route (§6 "extract
// SQL result to scratch CSV"). It does not implement any particular SQL
// dialect of its own (§2 Non-goals, "Implementing the SQL dialect of the
// backing database engine") — the query text is handed straight to the
// connected driver.
func (e *Engine) RawQuery(ctx context.Context, query string) ([]QueryRow, error) {
	rows, err := e.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}

	var out []QueryRow
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		values := make([]string, len(cols))
		for i, v := range raw {
			values[i] = stringify(v)
		}
		out = append(out, QueryRow{Columns: cols, Values: values})
	}
	return out, rows.Err()
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
