package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"github.com/r3e-network/datalake-ingestion/internal/execution"
	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

// relADriver executes extractions against the stored-procedure family
// (spec §4.3.1), e.g. SQL-Server-shaped databases. testDB, when set, is
// used in place of opening connectionString via the real "sqlserver"
// driver — it exists so tests can exercise this driver against
// go-sqlmock's in-memory *sql.DB.
type relADriver struct {
	testDB *sql.DB
}

func (d *relADriver) Extract(ctx context.Context, connectionString, query string, parameters map[string]any, commandTimeoutSec int) (*execution.TabularData, error) {
	db := d.testDB
	if db == nil {
		opened, err := sql.Open("sqlserver", connectionString)
		if err != nil {
			return nil, fmt.Errorf("datasource(relA): open: %w: %v", ingesterr.ErrExtraction, err)
		}
		defer opened.Close()
		db = opened
	}

	timeout := commandTimeoutSec
	if timeout <= 0 {
		timeout = 600
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	stmt := query
	if !isRawText(query) {
		stmt = "EXEC " + query + " " + namedParamList(parameters)
	}

	args := make([]any, 0, len(parameters))
	for name, value := range parameters {
		args = append(args, sql.Named(stripColonPrefix(name), coerceParam(value)))
	}

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("datasource(relA): query %q: %w: %v", query, ingesterr.ErrExtraction, err)
	}
	defer rows.Close()

	table, err := tabularFromRows(rows)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// namedParamList renders "@p1=@p1, @p2=@p2, ..." for a stored-procedure
// call using go-mssqldb's @name binding convention.
func namedParamList(parameters map[string]any) string {
	s := ""
	first := true
	for name := range parameters {
		name = stripColonPrefix(name)
		if !first {
			s += ", "
		}
		s += "@" + name + "=@" + name
		first = false
	}
	return s
}
