package gormdb

import (
	"database/sql"
	"fmt"
)

type rowsAdapter struct {
	*sql.Rows
}

func (ra rowsAdapter) Close() {
	if ra.Rows == nil {
		return
	}
	// returned error may be checked by calling the Err() method
	_ = ra.Rows.Close()
}

func (ra rowsAdapter) Next() bool {
	return ra.Rows != nil && ra.Rows.Next()
}

func (ra rowsAdapter) Err() error {
	if ra.Rows == nil {
		return nil
	}
	return ra.Rows.Err()
}

// Values scans the current row into a slice with one element per
// column, leaving the values in their driver types.
func (ra rowsAdapter) Values() ([]any, error) {
	names, err := ra.Columns()
	if err != nil {
		return nil, fmt.Errorf("column-names: %w", err)
	}
	vals := make([]any, len(names))
	valPtrs := make([]any, 0, len(names))
	for i := range vals {
		valPtrs = append(valPtrs, &vals[i])
	}
	err = ra.Scan(valPtrs...)
	return vals, err
}
