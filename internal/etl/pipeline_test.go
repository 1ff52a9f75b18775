package etl

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BartekS5/order-etl/pkg/etlerr"
	"github.com/BartekS5/order-etl/pkg/models"
)

func connectTo(db *sql.DB) ConnectFunc {
	return func(context.Context) (*sql.DB, error) { return db, nil }
}

func failConnect(msg string) ConnectFunc {
	return func(context.Context) (*sql.DB, error) {
		return nil, etlerr.Connection(msg, etlerr.WithCause(errors.New("dial tcp: i/o timeout")))
	}
}

func newTestPipeline(src, dst ConnectFunc, dryRun bool) *Pipeline {
	return NewPipeline(src, dst, NewStatusFilter(DefaultAcceptedStatuses...), zap.NewNop(), dryRun)
}

func TestRunMovesOnlyConfirmedOrders(t *testing.T) {
	srcDB, src := newMock(t)
	dstDB, dst := newMock(t)

	orders := []models.Order{
		testOrder(1, "confirmed"),
		testOrder(2, "pending"),
		testOrder(3, "confirmed"),
		testOrder(4, "cancelled"),
	}
	src.ExpectQuery(SelectOrdersQuery).WillReturnRows(sourceRows(orders...))
	src.ExpectClose()

	dst.ExpectExec(CreateTableStatement).WillReturnResult(sqlmock.NewResult(0, 0))
	dst.ExpectBegin()
	dst.ExpectExec(UpsertStatement).WithArgs(toDriverArgs(upsertArgs(orders[0]))...).WillReturnResult(sqlmock.NewResult(0, 1))
	dst.ExpectExec(UpsertStatement).WithArgs(toDriverArgs(upsertArgs(orders[2]))...).WillReturnResult(sqlmock.NewResult(0, 1))
	dst.ExpectCommit()
	dst.ExpectClose()

	report, err := newTestPipeline(connectTo(srcDB), connectTo(dstDB), false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Extracted)
	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 2, report.Written)
	assert.Equal(t, StageDone, report.Stage)
	assert.NoError(t, src.ExpectationsWereMet())
	assert.NoError(t, dst.ExpectationsWereMet())
}

func TestRunEmptySource(t *testing.T) {
	srcDB, src := newMock(t)
	dstDB, dst := newMock(t)

	src.ExpectQuery(SelectOrdersQuery).WillReturnRows(sourceRows())
	src.ExpectClose()
	dst.ExpectExec(CreateTableStatement).WillReturnResult(sqlmock.NewResult(0, 0))
	dst.ExpectClose()

	report, err := newTestPipeline(connectTo(srcDB), connectTo(dstDB), false).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Written)
	assert.Zero(t, report.Accepted)
	assert.Equal(t, 0, etlerr.ExitCode(err))
	assert.NoError(t, src.ExpectationsWereMet())
	assert.NoError(t, dst.ExpectationsWereMet())
}

func TestRunDestinationUnreachableClosesSource(t *testing.T) {
	srcDB, src := newMock(t)
	src.ExpectClose()

	report, err := newTestPipeline(connectTo(srcDB), failConnect("connect destination database"), false).Run(context.Background())
	require.Error(t, err)

	assert.True(t, etlerr.Is(err, etlerr.KindConnection))
	assert.NotZero(t, etlerr.ExitCode(err))
	assert.Equal(t, StageConnectDest, report.Stage)
	assert.Zero(t, report.Written)
	assert.NoError(t, src.ExpectationsWereMet())
}

func TestRunSourceUnreachableNeverDialsDestination(t *testing.T) {
	dialed := false
	dst := func(context.Context) (*sql.DB, error) {
		dialed = true
		return nil, errors.New("unexpected")
	}

	report, err := newTestPipeline(failConnect("connect source database"), dst, false).Run(context.Background())
	require.Error(t, err)
	assert.False(t, dialed)
	assert.Equal(t, StageConnectSource, report.Stage)
	assert.Equal(t, 3, etlerr.ExitCode(err))
}

func TestRunSchemaFailureSkipsExtraction(t *testing.T) {
	srcDB, src := newMock(t)
	dstDB, dst := newMock(t)

	src.ExpectClose()
	dst.ExpectExec(CreateTableStatement).WillReturnError(errors.New("permission denied"))
	dst.ExpectClose()

	report, err := newTestPipeline(connectTo(srcDB), connectTo(dstDB), false).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 4, etlerr.ExitCode(err))
	assert.Equal(t, StageEnsureSchema, report.Stage)
	assert.NoError(t, src.ExpectationsWereMet())
	assert.NoError(t, dst.ExpectationsWereMet())
}

func TestRunWriteFailureRollsBackAndCloses(t *testing.T) {
	srcDB, src := newMock(t)
	dstDB, dst := newMock(t)

	src.ExpectQuery(SelectOrdersQuery).WillReturnRows(sourceRows(testOrder(1, "confirmed")))
	src.ExpectClose()
	dst.ExpectExec(CreateTableStatement).WillReturnResult(sqlmock.NewResult(0, 0))
	dst.ExpectBegin()
	dst.ExpectExec(UpsertStatement).WillReturnError(errors.New("Violation of PRIMARY KEY constraint"))
	dst.ExpectRollback()
	dst.ExpectClose()

	report, err := newTestPipeline(connectTo(srcDB), connectTo(dstDB), false).Run(context.Background())
	require.Error(t, err)
	assert.True(t, etlerr.Is(err, etlerr.KindWrite))
	assert.Equal(t, StageLoad, report.Stage)
	assert.Equal(t, 1, report.Accepted)
	assert.Zero(t, report.Written)
	assert.NoError(t, src.ExpectationsWereMet())
	assert.NoError(t, dst.ExpectationsWereMet())
}

func TestRunCloseFailureDoesNotFailRun(t *testing.T) {
	srcDB, src := newMock(t)
	dstDB, dst := newMock(t)

	src.ExpectQuery(SelectOrdersQuery).WillReturnRows(sourceRows())
	src.ExpectClose().WillReturnError(errors.New("broken pipe"))
	dst.ExpectExec(CreateTableStatement).WillReturnResult(sqlmock.NewResult(0, 0))
	dst.ExpectClose()

	_, err := newTestPipeline(connectTo(srcDB), connectTo(dstDB), false).Run(context.Background())
	assert.NoError(t, err)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	srcDB, src := newMock(t)
	dstDB, dst := newMock(t)

	src.ExpectQuery(SelectOrdersQuery).WillReturnRows(sourceRows(testOrder(1, "confirmed"), testOrder(2, "pending")))
	src.ExpectClose()
	dst.ExpectClose()

	report, err := newTestPipeline(connectTo(srcDB), connectTo(dstDB), true).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Accepted)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Written)
	assert.NoError(t, src.ExpectationsWereMet())
	assert.NoError(t, dst.ExpectationsWereMet())
}
