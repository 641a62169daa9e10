package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zeptools/orderdocs/orders"
)

// Store - pgxpool-backed orders.Store
type Store struct {
	Conf *orders.Conf

	// pool is an implementation detail, not exported
	pool *pgxpool.Pool
	dsn  string
}

// Ensure pgsql.Store implements orders.Store interface
var _ orders.Store = (*Store)(nil)

func (s *Store) Init() error {
	if s.Conf.DSN != "" {
		s.dsn = s.Conf.DSN
	} else {
		// NOTE: sslmode=disable is often used for local dev, adjust as needed.
		s.dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=%s",
			s.Conf.Host,
			s.Conf.Port,
			s.Conf.User,
			s.Conf.PW,
			s.Conf.DB,
			s.Conf.TZ,
		)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	config, err := pgxpool.ParseConfig(s.dsn)
	if err != nil {
		return fmt.Errorf("failed to parse pgx config: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 3 * time.Minute
	if s.pool, err = pgxpool.NewWithConfig(ctx, config); err != nil {
		return fmt.Errorf("failed to connect pgx Pool: %w", err)
	}
	if err = s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	log.Print("[INFO] pgsql order store initialized")
	return nil
}

func (s *Store) Close() error {
	if s.pool == nil {
		return nil
	}
	log.Println("[INFO] closing pgsql order store")
	s.pool.Close()
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	var o orders.Order
	row := s.pool.QueryRow(ctx,
		`SELECT id, order_no, invoice_no, customer_id, vat_rate_percent, delivery_date
		   FROM orders WHERE id = $1`, id)
	err := row.Scan(&o.ID, &o.OrderNo, &o.InvoiceNo, &o.CustomerID, &o.VATRatePercent, &o.DeliveryDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT line_item_id FROM order_line_items WHERE order_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get order %s line item ids: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var itemID string
		if err = rows.Scan(&itemID); err != nil {
			return nil, err
		}
		o.LineItemIDs = append(o.LineItemIDs, itemID)
	}
	return &o, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*orders.Customer, error) {
	var c orders.Customer
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, address, street, postal, city FROM customers WHERE id = $1`, id)
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Street, &c.Postal, &c.City)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}
	return &c, nil
}

func (s *Store) GetLineItem(ctx context.Context, id string) (*orders.LineItem, error) {
	var it orders.LineItem
	row := s.pool.QueryRow(ctx,
		`SELECT id, code, description, ordered_qty, ordered_unit,
		        committed_qty, committed_unit, net_weight, unit_price, stored_total
		   FROM line_items WHERE id = $1`, id)
	err := row.Scan(
		&it.ID, &it.Code, &it.Description,
		&it.OrderedQty, &it.OrderedUnit,
		&it.CommittedQty, &it.CommittedUnit,
		&it.NetWeight, &it.UnitPrice, &it.StoredTotal,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get line item %s: %w", id, err)
	}
	if it.Packaging, err = s.packagingOf(ctx, id); err != nil {
		return nil, err
	}
	if it.BatchNumbers, err = s.batchNumbersOf(ctx, id); err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *Store) packagingOf(ctx context.Context, itemID string) ([]orders.Packaging, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT label, count FROM line_item_packaging WHERE line_item_id = $1 ORDER BY position`, itemID)
	if err != nil {
		return nil, fmt.Errorf("get packaging of %s: %w", itemID, err)
	}
	defer rows.Close()
	var out []orders.Packaging
	for rows.Next() {
		var p orders.Packaging
		if err = rows.Scan(&p.Label, &p.Count); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) batchNumbersOf(ctx context.Context, itemID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT batch_no FROM line_item_batches WHERE line_item_id = $1 ORDER BY position`, itemID)
	if err != nil {
		return nil, fmt.Errorf("get batches of %s: %w", itemID, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var b string
		if err = rows.Scan(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
