package customer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSourceTest(t *testing.T) (*PostgresSource, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}

	return NewPostgresSource(db), mock, func() { db.Close() }
}

func customerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "role", "created_at", "last_active_at", "address", "lifetime_value"})
}

func orderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "customer_id", "total_amount", "payment_status", "created_at"})
}

func TestListCustomersWithOrdersJoinsInMemory(t *testing.T) {
	source, mock, cleanup := setupSourceTest(t)
	defer cleanup()

	custA := uuid.New()
	custB := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT id, name, email, role").WillReturnRows(customerRows().
		AddRow(custA, "Ada", "ada@example.com", "manager", now, now, []byte(`{"city":"Lagos","country":"Nigeria"}`), 500.0).
		AddRow(custB, "Ben", "ben@example.com", "member", now, nil, nil, 0.0))

	mock.ExpectQuery("SELECT id, customer_id, total_amount").WillReturnRows(orderRows().
		AddRow(uuid.New(), custA, 50.0, "paid", now).
		AddRow(uuid.New(), custA, 70.0, "pending", now))

	records, err := source.ListCustomersWithOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Ada", records[0].Name)
	require.NotNil(t, records[0].Address)
	assert.Equal(t, "Lagos", records[0].Address.City)
	assert.Len(t, records[0].Orders, 2)

	assert.Nil(t, records[1].Address)
	assert.Nil(t, records[1].LastActiveAt)
	assert.Empty(t, records[1].Orders)
}

func TestListCustomersSourceFailure(t *testing.T) {
	source, mock, cleanup := setupSourceTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, name, email, role").WillReturnError(errors.New("connection refused"))

	_, err := source.ListCustomersWithOrders(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestDecodeAddressLeniency(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want *Address
	}{
		{"nil column", nil, nil},
		{"empty column", []byte(``), nil},
		{"json null", []byte(`null`), nil},
		{"malformed json", []byte(`{"city": "Lag`), nil},
		{"wrong shape", []byte(`"just a string"`), nil},
		{"empty object", []byte(`{}`), nil},
		{"well-formed", []byte(`{"city":"Lagos"}`), &Address{City: "Lagos"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeAddress(tt.raw))
		})
	}
}
