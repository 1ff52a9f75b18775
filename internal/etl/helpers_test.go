package etl

import (
	"database/sql"
	"database/sql/driver"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/order-etl/pkg/models"
)

var testCreatedAt = time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	return db, mock
}

func testOrder(id int64, status string) models.Order {
	return models.Order{
		ID:        id,
		OrderRef:  "ORD-" + strconv.FormatInt(id, 10),
		Customer:  "Ada Lovelace",
		Product:   "Widget",
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("19.99"),
		Status:    status,
		CreatedAt: testCreatedAt,
	}
}

// sourceRows renders orders the way the source driver hands them back.
func sourceRows(orders ...models.Order) *sqlmock.Rows {
	rows := sqlmock.NewRows(models.ColumnNames())
	for _, o := range orders {
		rows.AddRow(o.ID, o.OrderRef, o.Customer, o.Product, o.Quantity, o.UnitPrice.String(), o.Status, o.CreatedAt)
	}
	return rows
}

// upsertArgs are the driver values the writer binds for o.
func upsertArgs(o models.Order) []sqlmock.Argument {
	return []sqlmock.Argument{
		namedArg{"id", o.ID},
		namedArg{"order_ref", o.OrderRef},
		namedArg{"customer", o.Customer},
		namedArg{"product", o.Product},
		namedArg{"quantity", o.Quantity},
		namedArg{"unit_price", o.UnitPrice.String()},
		namedArg{"status", o.Status},
		namedArg{"created_at", o.CreatedAt},
	}
}

// namedArg matches a bound value. sqlmock hands Argument matchers the
// converted value only, so the name is checked by the statement text.
type namedArg struct {
	name  string
	value any
}

func (a namedArg) Match(v driver.Value) bool {
	if want, ok := a.value.(time.Time); ok {
		got, ok := v.(time.Time)
		return ok && want.Equal(got)
	}
	return v == a.value
}

func toDriverArgs(args []sqlmock.Argument) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}
