package orders

import (
	"context"
	"errors"
)

// ErrNotFound - the referenced order, customer or line item does not exist
var ErrNotFound = errors.New("orders: not found")

// Store - synchronous-once lookup boundary the document composer reads
// from. Implementations live under impls/.
type Store interface {
	GetOrder(ctx context.Context, id string) (*Order, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	GetLineItem(ctx context.Context, id string) (*LineItem, error)
}

// Conf - connection settings for SQL-backed stores
type Conf struct {
	Type string `json:"type"` // pgsql, mysql
	Host string `json:"host"`
	Port int    `json:"port"`
	User string `json:"user"`
	PW   string `json:"pw"`
	DB   string `json:"db"`
	TZ   string `json:"tz"`  // Connection Timezone
	DSN  string `json:"dsn"` // To Overwrite Default DSN
}
