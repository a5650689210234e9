// ABOUTME: Order store methods for recorded checkouts
// ABOUTME: Orders keep the submitted cart payload as JSON for the admin panel

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateOrder records a checkout.
func (s *SQLiteStore) CreateOrder(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (id, account_id, customer_name, total, items_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		o.ID,
		nullableString(o.AccountID),
		o.CustomerName,
		o.Total,
		o.ItemsJSON,
		o.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	s.logger.Info("created order", "id", o.ID, "total", o.Total)
	return nil
}

// ListOrders returns all orders, newest first.
func (s *SQLiteStore) ListOrders(ctx context.Context) ([]*Order, error) {
	query := `
		SELECT id, account_id, customer_name, total, items_json, created_at
		FROM orders
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orders []*Order
	for rows.Next() {
		var o Order
		var accountID sql.NullString
		var createdAtStr string

		if err := rows.Scan(&o.ID, &accountID, &o.CustomerName, &o.Total, &o.ItemsJSON, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}

		o.AccountID = accountID.String
		o.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}

	return orders, nil
}
