package datasource

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/datalake-ingestion/internal/execution"
)

func TestRelADriver_RawTextQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"TradeId", "Symbol"}).
		AddRow(int64(1), "AAPL").
		AddRow(int64(2), "MSFT")
	mock.ExpectQuery("SELECT \\* FROM trades").WillReturnRows(rows)

	driver := &relADriver{testDB: db}
	table, err := driver.Extract(context.Background(), "fake", "SELECT * FROM trades", nil, 0)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRawText(t *testing.T) {
	assert.True(t, isRawText("  select * from t"))
	assert.True(t, isRawText("WITH cte AS (SELECT 1) SELECT * FROM cte"))
	assert.False(t, isRawText("dbo.sp_GetDailyTrades"))
}
