package etl

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BartekS5/order-etl/pkg/etlerr"
	"github.com/BartekS5/order-etl/pkg/models"
	"github.com/BartekS5/order-etl/pkg/utils"
)

// SelectOrdersQuery reads the whole source relation in id order.
var SelectOrdersQuery = fmt.Sprintf("SELECT %s FROM orders ORDER BY id",
	strings.Join(models.ColumnNames(), ", "))

// fieldSetters assigns a scanned driver value to the Order field of the
// same column name.
var fieldSetters = map[string]func(o *models.Order, v interface{}) error{
	"id": func(o *models.Order, v interface{}) (err error) {
		o.ID, err = utils.ConvertToInt64(v)
		return err
	},
	"order_ref": func(o *models.Order, v interface{}) (err error) {
		o.OrderRef, err = utils.ConvertToString(v)
		return err
	},
	"customer": func(o *models.Order, v interface{}) (err error) {
		o.Customer, err = utils.ConvertToString(v)
		return err
	},
	"product": func(o *models.Order, v interface{}) (err error) {
		o.Product, err = utils.ConvertToString(v)
		return err
	},
	"quantity": func(o *models.Order, v interface{}) (err error) {
		o.Quantity, err = utils.ConvertToInt64(v)
		return err
	},
	"unit_price": func(o *models.Order, v interface{}) (err error) {
		o.UnitPrice, err = utils.ConvertToDecimal(v)
		return err
	},
	"status": func(o *models.Order, v interface{}) (err error) {
		o.Status, err = utils.ConvertToString(v)
		return err
	},
	"created_at": func(o *models.Order, v interface{}) (err error) {
		o.CreatedAt, err = utils.ConvertDateTime(v)
		return err
	},
}

// SourceReader extracts orders from the source database.
type SourceReader struct {
	DB     *sql.DB
	Logger *zap.Logger
}

// NewSourceReader wraps an open source connection.
func NewSourceReader(db *sql.DB, logger *zap.Logger) *SourceReader {
	return &SourceReader{DB: db, Logger: logger}
}

// Extract materializes every source row, ordered by ascending id.
func (s *SourceReader) Extract(ctx context.Context) ([]models.Order, error) {
	rows, err := s.DB.QueryContext(ctx, SelectOrdersQuery)
	if err != nil {
		return nil, etlerr.Query("select orders", etlerr.WithCause(err))
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, etlerr.Query("read result columns", etlerr.WithCause(err))
	}
	if err := checkColumns(cols); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0)
	for rows.Next() {
		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, etlerr.Query("scan order row", etlerr.WithCause(err))
		}

		var o models.Order
		for i, col := range cols {
			if err := fieldSetters[col](&o, values[i]); err != nil {
				return nil, etlerr.Query(
					fmt.Sprintf("row %d: column %s", len(orders)+1, col),
					etlerr.WithCause(fmt.Errorf("%w: %v", etlerr.ErrMalformedResult, err)),
				)
			}
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, etlerr.Query("iterate orders", etlerr.WithCause(err))
	}

	s.Logger.Info("pulled records from source", zap.Int("count", len(orders)))
	return orders, nil
}

// checkColumns verifies the result carries exactly the declared columns.
// Their position may differ; fields are assigned by name.
func checkColumns(cols []string) error {
	if len(cols) != len(fieldSetters) {
		return etlerr.Query(
			fmt.Sprintf("expected %d columns, got %d", len(fieldSetters), len(cols)),
			etlerr.WithCause(etlerr.ErrMalformedResult),
		)
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if _, ok := fieldSetters[c]; !ok || seen[c] {
			return etlerr.Query("unexpected column "+c, etlerr.WithCause(etlerr.ErrMalformedResult))
		}
		seen[c] = true
	}
	return nil
}
