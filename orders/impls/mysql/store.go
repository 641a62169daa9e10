package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql" // side-effect

	"github.com/zeptools/orderdocs/orders"
)

// Store - database/sql + mysql driver backed orders.Store
type Store struct {
	Conf *orders.Conf

	// db fields are implementation details, not exported
	db  *sql.DB
	dsn string
}

// Ensure mysql.Store implements orders.Store interface
var _ orders.Store = (*Store)(nil)

func (s *Store) Init() error {
	var err error
	if s.Conf.DSN != "" {
		s.dsn = s.Conf.DSN
	} else {
		s.dsn = fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=%s&sql_mode=ANSI_QUOTES",
			s.Conf.User,
			s.Conf.PW,
			s.Conf.Host,
			s.Conf.Port,
			s.Conf.DB,
			s.Conf.TZ,
		)
	}
	if s.db, err = sql.Open("mysql", s.dsn); err != nil {
		return err
	}
	s.db.SetConnMaxLifetime(time.Minute * 3)
	s.db.SetMaxOpenConns(10)
	s.db.SetMaxIdleConns(10)
	if err = s.db.Ping(); err != nil {
		return err
	}
	log.Println("[INFO] mysql order store initialized")
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	log.Println("[INFO] closing mysql order store")
	return s.db.Close()
}

func (s *Store) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	var o orders.Order
	row := s.db.QueryRowContext(ctx,
		`SELECT id, order_no, invoice_no, customer_id, vat_rate_percent, delivery_date
		   FROM orders WHERE id = ?`, id)
	err := row.Scan(&o.ID, &o.OrderNo, &o.InvoiceNo, &o.CustomerID, &o.VATRatePercent, &o.DeliveryDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT line_item_id FROM order_line_items WHERE order_id = ? ORDER BY position`, id)
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
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, address, street, postal, city FROM customers WHERE id = ?`, id)
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Street, &c.Postal, &c.City)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}
	return &c, nil
}

func (s *Store) GetLineItem(ctx context.Context, id string) (*orders.LineItem, error) {
	var it orders.LineItem
	row := s.db.QueryRowContext(ctx,
		`SELECT id, code, description, ordered_qty, ordered_unit,
		        committed_qty, committed_unit, net_weight, unit_price, stored_total
		   FROM line_items WHERE id = ?`, id)
	err := row.Scan(
		&it.ID, &it.Code, &it.Description,
		&it.OrderedQty, &it.OrderedUnit,
		&it.CommittedQty, &it.CommittedUnit,
		&it.NetWeight, &it.UnitPrice, &it.StoredTotal,
	)
	if errors.Is(err, sql.ErrNoRows) {
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, count FROM line_item_packaging WHERE line_item_id = ? ORDER BY position`, itemID)
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT batch_no FROM line_item_batches WHERE line_item_id = ? ORDER BY position`, itemID)
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
