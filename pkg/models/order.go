package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Column describes one transferred column: its name at both ends and
// its SQL Server type in the destination table.
type Column struct {
	Name    string
	SQLType string
}

// OrderColumns lists the columns read from the source relation, in the
// order they are selected. It drives the select list, the destination
// DDL and the upsert statement.
var OrderColumns = []Column{
	{Name: "id", SQLType: "INT PRIMARY KEY"},
	{Name: "order_ref", SQLType: "VARCHAR(50)"},
	{Name: "customer", SQLType: "VARCHAR(100)"},
	{Name: "product", SQLType: "VARCHAR(100)"},
	{Name: "quantity", SQLType: "INT"},
	{Name: "unit_price", SQLType: "DECIMAL(10,2)"},
	{Name: "status", SQLType: "VARCHAR(20)"},
	{Name: "created_at", SQLType: "DATETIME"},
}

// Order is the unit of transfer between the source and destination stores.
type Order struct {
	ID        int64
	OrderRef  string
	Customer  string
	Product   string
	Quantity  int64
	UnitPrice decimal.Decimal
	Status    string
	CreatedAt time.Time
	// ETLLoadedAt is assigned by the destination on every write.
	ETLLoadedAt time.Time
}

// ColumnNames returns the names of OrderColumns.
func ColumnNames() []string {
	names := make([]string, len(OrderColumns))
	for i, c := range OrderColumns {
		names[i] = c.Name
	}
	return names
}

// NamedArgs binds every transferred field to its column name.
func (o Order) NamedArgs() []any {
	return []any{
		sql.Named("id", o.ID),
		sql.Named("order_ref", o.OrderRef),
		sql.Named("customer", o.Customer),
		sql.Named("product", o.Product),
		sql.Named("quantity", o.Quantity),
		sql.Named("unit_price", o.UnitPrice),
		sql.Named("status", o.Status),
		sql.Named("created_at", o.CreatedAt),
	}
}
