package etl

import (
	"context"
	"database/sql"

	"github.com/BartekS5/order-etl/pkg/models"
)

// ConnectFunc opens one end of the pipeline.
type ConnectFunc func(ctx context.Context) (*sql.DB, error)

type Extractor interface {
	Extract(ctx context.Context) ([]models.Order, error)
}

type Filter interface {
	Accept(order models.Order) bool
}

type Loader interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, orders []models.Order) (int, error)
}
