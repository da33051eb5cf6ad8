package ledger

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOp_RecordAndCloseAlwaysSucceed(t *testing.T) {
	var sink Sink = NoOp{}
	assert.NoError(t, sink.Record(context.Background(), Entry{DatasetID: "trades"}))
	assert.NoError(t, sink.Close())
}

func TestPostgresSink_Record_InsertsEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO execution_history").WillReturnResult(sqlmock.NewResult(1, 1))

	sink := &PostgresSink{db: sqlx.NewDb(db, "postgres")}
	err = sink.Record(context.Background(), Entry{
		DatasetID:   "trades",
		ExecutionID: "trades.20240115120000-abcd1234",
		Outcome:     "Succeeded",
		StartTime:   time.Now().UTC(),
		EndTime:     time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	mock.ExpectClose()
	require.NoError(t, sink.Close())
}
