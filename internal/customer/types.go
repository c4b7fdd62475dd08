// Package customer defines the customer population model and the
// Record Source that supplies it to the segmentation engine.
package customer

import (
	"time"

	"github.com/google/uuid"
)

// Address is the structured shipping address stored on a customer.
// Any of its parts may be empty; the whole address may be absent.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Order is a single order belonging to a customer.
type Order struct {
	ID            uuid.UUID `json:"id" db:"id"`
	CustomerID    uuid.UUID `json:"customer_id" db:"customer_id"`
	TotalAmount   float64   `json:"total_amount" db:"total_amount"`
	PaymentStatus string    `json:"payment_status" db:"payment_status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Record is a raw customer row with its associated orders.
//
// StoredLifetimeValue is the static value column carried by the store.
// The engine never filters or aggregates on it; realized value is
// always recomputed from paid orders (see the profile package).
type Record struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	Name                string     `json:"name" db:"name"`
	Email               string     `json:"email" db:"email"`
	Role                string     `json:"role" db:"role"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	LastActiveAt        *time.Time `json:"last_active_at,omitempty" db:"last_active_at"`
	Address             *Address   `json:"address,omitempty"`
	StoredLifetimeValue float64    `json:"lifetime_value" db:"lifetime_value"`
	Orders              []Order    `json:"orders,omitempty"`
}
