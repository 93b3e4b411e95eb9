package repository

import (
	"context"
	"errors"

	"fotokeramika/models"
)

// ErrOrderNotFound is returned when no order matches the requested order number
var ErrOrderNotFound = errors.New("order not found")

// OrderRepositoryInterface defines the contract for order persistence backends
type OrderRepositoryInterface interface {
	SubmitOrder(ctx context.Context, record *models.OrderRecord) (models.OrderID, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.StoredOrder, error)
}
