package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/r3e-network/datalake-ingestion/internal/execution"
	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

// relBDriver executes extractions against the output-cursor family (spec
// §4.3.2), e.g. Oracle-shaped databases: a trailing p_cursor output
// parameter yields the result set after procedure return.
type relBDriver struct{}

func (d *relBDriver) Extract(ctx context.Context, connectionString, query string, parameters map[string]any, commandTimeoutSec int) (*execution.TabularData, error) {
	db, err := sql.Open("oracle", connectionString)
	if err != nil {
		return nil, fmt.Errorf("datasource(relB): open: %w: %v", ingesterr.ErrExtraction, err)
	}
	defer db.Close()

	timeout := commandTimeoutSec
	if timeout <= 0 {
		timeout = 600
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	if isRawText(query) {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("datasource(relB): query %q: %w: %v", query, ingesterr.ErrExtraction, err)
		}
		defer rows.Close()
		return tabularFromRows(rows)
	}

	// package-qualified ("pkg.proc") vs. plain procedure, both executed the
	// same way: as a stored procedure with parameters bound in map
	// iteration order plus a trailing output cursor.
	args := make([]any, 0, len(parameters)+1)
	for name, value := range parameters {
		name = stripColonPrefix(name)
		v := coerceParam(value)
		if v == nil {
			v = sql.NullString{}
		}
		args = append(args, sql.Named(name, v))
	}

	var cursor go_ora.RefCursor
	args = append(args, sql.Named("p_cursor", sql.Out{Dest: &cursor}))

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("datasource(relB): exec %q: %w: %v", query, ingesterr.ErrExtraction, err)
	}

	rows, err := cursor.Query()
	if err != nil {
		return nil, fmt.Errorf("datasource(relB): read cursor: %w: %v", ingesterr.ErrExtraction, err)
	}
	defer rows.Close()

	return tabularFromRows(rows)
}

// isPackageQualified reports whether query names a package-qualified
// procedure ("PKG.PROC") rather than a plain one (spec §4.3.2).
func isPackageQualified(query string) bool {
	return strings.Contains(query, ".")
}
