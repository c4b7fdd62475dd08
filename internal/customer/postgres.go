package customer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresSource reads the customer population from Postgres.
//
// Orders are fetched in a second query and joined in memory: the
// engine filters on derived aggregates anyway, so there is nothing to
// gain from pushing the join into SQL.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource creates a source backed by the given database.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// ListCustomersWithOrders returns every customer with its orders.
func (s *PostgresSource) ListCustomersWithOrders(ctx context.Context) ([]Record, error) {
	customers, err := s.listCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list customers: %v", ErrSourceUnavailable, err)
	}

	orders, err := s.listOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", ErrSourceUnavailable, err)
	}

	byCustomer := make(map[uuid.UUID][]Order, len(customers))
	for _, o := range orders {
		byCustomer[o.CustomerID] = append(byCustomer[o.CustomerID], o)
	}
	for i := range customers {
		customers[i].Orders = byCustomer[customers[i].ID]
	}

	return customers, nil
}

func (s *PostgresSource) listCustomers(ctx context.Context) ([]Record, error) {
	query := `
		SELECT id, name, email, role, created_at, last_active_at, address, lifetime_value
		FROM customers
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var lastActive sql.NullTime
		var addressJSON []byte

		err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Role, &rec.CreatedAt,
			&lastActive, &addressJSON, &rec.StoredLifetimeValue)
		if err != nil {
			return nil, err
		}

		if lastActive.Valid {
			t := lastActive.Time
			rec.LastActiveAt = &t
		}
		rec.Address = decodeAddress(addressJSON)

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (s *PostgresSource) listOrders(ctx context.Context) ([]Order, error) {
	query := `
		SELECT id, customer_id, total_amount, payment_status, created_at
		FROM orders
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		var status sql.NullString
		var createdAt sql.NullTime

		if err := rows.Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &status, &createdAt); err != nil {
			return nil, err
		}
		if status.Valid {
			o.PaymentStatus = status.String
		}
		if createdAt.Valid {
			o.CreatedAt = createdAt.Time
		} else {
			o.CreatedAt = time.Time{}
		}

		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// decodeAddress tolerates NULL, empty, and malformed address columns.
// Anything that does not decode to an address object resolves to nil.
func decodeAddress(raw []byte) *Address {
	if len(raw) == 0 {
		return nil
	}
	var addr Address
	if err := json.Unmarshal(raw, &addr); err != nil {
		return nil
	}
	if addr == (Address{}) {
		return nil
	}
	return &addr
}
