package etl

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BartekS5/order-etl/pkg/etlerr"
	"github.com/BartekS5/order-etl/pkg/models"
)

// DestinationTable is the SQL Server table confirmed orders land in.
const DestinationTable = "dbo.confirmed_orders"

const loadedAtColumn = "etl_loaded_at"

var (
	// CreateTableStatement creates the destination table if it is absent
	// and leaves an existing table untouched.
	CreateTableStatement = buildCreateTable()
	// UpsertStatement merges one order, keyed by id, binding every
	// column by name.
	UpsertStatement = buildUpsert()
)

func buildCreateTable() string {
	defs := make([]string, 0, len(models.OrderColumns)+1)
	for _, c := range models.OrderColumns {
		defs = append(defs, fmt.Sprintf("%s %s", c.Name, c.SQLType))
	}
	defs = append(defs, loadedAtColumn+" DATETIME DEFAULT GETDATE()")

	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n\t%s\n);",
		DestinationTable, DestinationTable, strings.Join(defs, ",\n\t"))
}

func buildUpsert() string {
	var (
		sets    []string
		cols    []string
		params  []string
		keyName = models.OrderColumns[0].Name
	)
	for _, c := range models.OrderColumns {
		cols = append(cols, c.Name)
		params = append(params, "@"+c.Name)
		if c.Name != keyName {
			sets = append(sets, fmt.Sprintf("%s = @%s", c.Name, c.Name))
		}
	}
	sets = append(sets, loadedAtColumn+" = GETDATE()")
	cols = append(cols, loadedAtColumn)
	params = append(params, "GETDATE()")

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE %s WITH (HOLDLOCK) AS target\n", DestinationTable)
	fmt.Fprintf(&b, "USING (SELECT @%s AS %s) AS source\n", keyName, keyName)
	fmt.Fprintf(&b, "ON target.%s = source.%s\n", keyName, keyName)
	fmt.Fprintf(&b, "WHEN MATCHED THEN\n\tUPDATE SET %s\n", strings.Join(sets, ", "))
	fmt.Fprintf(&b, "WHEN NOT MATCHED THEN\n\tINSERT (%s)\n\tVALUES (%s);",
		strings.Join(cols, ", "), strings.Join(params, ", "))
	return b.String()
}

// DestinationWriter upserts orders into the destination database.
type DestinationWriter struct {
	DB     *sql.DB
	Logger *zap.Logger
}

// NewDestinationWriter wraps an open destination connection.
func NewDestinationWriter(db *sql.DB, logger *zap.Logger) *DestinationWriter {
	return &DestinationWriter{DB: db, Logger: logger}
}

// EnsureSchema is safe to call on every run.
func (w *DestinationWriter) EnsureSchema(ctx context.Context) error {
	if _, err := w.DB.ExecContext(ctx, CreateTableStatement); err != nil {
		return etlerr.Schema("ensure destination table", etlerr.WithCause(err),
			etlerr.WithDetail("table", DestinationTable))
	}
	w.Logger.Info("destination schema ready", zap.String("table", DestinationTable))
	return nil
}

// Upsert writes all orders in one transaction: insert when the id is
// new, otherwise overwrite every column. Either every order is committed
// or none is.
func (w *DestinationWriter) Upsert(ctx context.Context, orders []models.Order) (int, error) {
	if len(orders) == 0 {
		w.Logger.Info("no records to upsert")
		return 0, nil
	}

	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, etlerr.Write("begin transaction", etlerr.WithCause(err))
	}

	for _, o := range orders {
		if _, err := tx.ExecContext(ctx, UpsertStatement, o.NamedArgs()...); err != nil {
			w.rollback(tx)
			return 0, etlerr.Write(fmt.Sprintf("upsert order %d", o.ID),
				etlerr.WithCause(err), etlerr.WithDetail("order_ref", o.OrderRef))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, etlerr.Write("commit transaction", etlerr.WithCause(err))
	}

	w.Logger.Info("upserted records into destination",
		zap.Int("count", len(orders)), zap.String("table", DestinationTable))
	return len(orders), nil
}

func (w *DestinationWriter) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		w.Logger.Warn("rollback failed", zap.Error(err))
	}
}
