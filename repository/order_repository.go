package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"fotokeramika/db"
	"fotokeramika/models"
)

// OrderRepository handles database operations for orders
type OrderRepository struct{}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

// Ensure OrderRepository implements OrderRepositoryInterface
var _ OrderRepositoryInterface = (*OrderRepository)(nil)

// SubmitOrder inserts a pending order and returns its generated id
func (r *OrderRepository) SubmitOrder(ctx context.Context, record *models.OrderRecord) (models.OrderID, error) {
	if record == nil {
		return "", &models.PersistenceError{Op: "insert", Err: errors.New("order record is nil")}
	}
	log.Printf("📦 SubmitOrder: Inserting order number=%s price=%d", record.OrderNumber, record.Price)

	optionsJSON, err := json.Marshal(record.Options)
	if err != nil {
		return "", &models.PersistenceError{Op: "insert", Err: fmt.Errorf("failed to encode options: %w", err)}
	}
	photos := record.PhotoURLs
	if photos == nil {
		photos = []string{}
	}
	photosJSON, err := json.Marshal(photos)
	if err != nil {
		return "", &models.PersistenceError{Op: "insert", Err: fmt.Errorf("failed to encode photo urls: %w", err)}
	}

	status := record.Status
	if status == "" {
		status = models.OrderStatusPending
	}

	query := `
		INSERT INTO orders (user_id, order_number, service_type, size, material, price, options, photo_urls, custom_text, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var id int64
	err = db.DB.QueryRowContext(ctx, query,
		nullableString(record.UserID),
		record.OrderNumber,
		record.ServiceType,
		record.Size,
		record.Material,
		record.Price,
		optionsJSON,
		photosJSON,
		nullableString(record.CustomText),
		status,
	).Scan(&id)
	if err != nil {
		log.Printf("❌ SubmitOrder: Error inserting order: %v", err)
		return "", &models.PersistenceError{Op: "insert", Err: err}
	}

	log.Printf("✅ SubmitOrder: Order stored id=%d number=%s", id, record.OrderNumber)
	return models.OrderID(strconv.FormatInt(id, 10)), nil
}

// GetByOrderNumber loads a stored order by its human readable number
func (r *OrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.StoredOrder, error) {
	query := `
		SELECT id, user_id, order_number, service_type, size, material, price, options, photo_urls, custom_text, status, created_at
		FROM orders
		WHERE order_number = $1
	`
	var (
		id          int64
		userID      sql.NullString
		customText  sql.NullString
		optionsJSON []byte
		photosJSON  []byte
		createdAt   time.Time
		order       models.StoredOrder
	)
	err := db.DB.QueryRowContext(ctx, query, orderNumber).Scan(
		&id,
		&userID,
		&order.OrderNumber,
		&order.ServiceType,
		&order.Size,
		&order.Material,
		&order.Price,
		&optionsJSON,
		&photosJSON,
		&customText,
		&order.Status,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		log.Printf("❌ GetByOrderNumber: Error fetching order %s: %v", orderNumber, err)
		return nil, &models.PersistenceError{Op: "select", Err: err}
	}

	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &order.Options); err != nil {
			return nil, &models.PersistenceError{Op: "select", Err: fmt.Errorf("failed to decode options: %w", err)}
		}
	}
	order.PhotoURLs = []string{}
	if len(photosJSON) > 0 {
		if err := json.Unmarshal(photosJSON, &order.PhotoURLs); err != nil {
			return nil, &models.PersistenceError{Op: "select", Err: fmt.Errorf("failed to decode photo urls: %w", err)}
		}
	}

	order.ID = models.OrderID(strconv.FormatInt(id, 10))
	order.UserID = userID.String
	order.CustomText = customText.String
	order.CreatedAt = createdAt
	return &order, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
