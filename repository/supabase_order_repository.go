package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/tidwall/gjson"

	"fotokeramika/models"
	"fotokeramika/supabase"
)

const ordersTable = "orders"

// SupabaseOrderRepository stores orders through the Supabase REST API
type SupabaseOrderRepository struct {
	client *supabase.Client
}

// NewSupabaseOrderRepository creates a repository backed by the given client
func NewSupabaseOrderRepository(client *supabase.Client) *SupabaseOrderRepository {
	return &SupabaseOrderRepository{client: client}
}

var _ OrderRepositoryInterface = (*SupabaseOrderRepository)(nil)

// SubmitOrder inserts the record and returns the id generated by the backend
func (r *SupabaseOrderRepository) SubmitOrder(ctx context.Context, record *models.OrderRecord) (models.OrderID, error) {
	if record == nil {
		return "", &models.PersistenceError{Op: "insert", Err: errors.New("order record is nil")}
	}
	if record.Status == "" {
		record.Status = models.OrderStatusPending
	}
	if record.PhotoURLs == nil {
		record.PhotoURLs = []string{}
	}

	resp, err := r.client.From(ordersTable).Select("id").ExecuteInsert(ctx, record)
	if err != nil {
		log.Printf("❌ SupabaseOrderRepository: insert request failed: %v", err)
		return "", &models.PersistenceError{Op: "insert", Err: err}
	}
	if err := resp.Error(); err != nil {
		log.Printf("❌ SupabaseOrderRepository: insert rejected: %v", err)
		return "", &models.PersistenceError{Op: "insert", Err: err}
	}

	id := gjson.GetBytes(resp.Body, "0.id")
	if !id.Exists() {
		id = gjson.GetBytes(resp.Body, "id")
	}
	if !id.Exists() || id.String() == "" {
		return "", &models.PersistenceError{Op: "insert", Err: fmt.Errorf("response carries no order id: %s", truncate(resp.Body, 200))}
	}

	log.Printf("✅ SupabaseOrderRepository: Order stored id=%s number=%s", id.String(), record.OrderNumber)
	return models.OrderID(id.String()), nil
}

// GetByOrderNumber fetches a single order row by number
func (r *SupabaseOrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.StoredOrder, error) {
	resp, err := r.client.From(ordersTable).
		Select("*").
		Eq("order_number", orderNumber).
		Single().
		Execute(ctx)
	if err != nil {
		return nil, &models.PersistenceError{Op: "select", Err: err}
	}
	// PostgREST answers 406 when a single-row request matches nothing
	if resp.StatusCode == http.StatusNotAcceptable || resp.StatusCode == http.StatusNotFound {
		return nil, ErrOrderNotFound
	}
	if err := resp.Error(); err != nil {
		return nil, &models.PersistenceError{Op: "select", Err: err}
	}

	var order models.StoredOrder
	if err := json.Unmarshal(resp.Body, &order.OrderRecord); err != nil {
		return nil, &models.PersistenceError{Op: "select", Err: fmt.Errorf("failed to decode order: %w", err)}
	}
	order.ID = models.OrderID(gjson.GetBytes(resp.Body, "id").String())
	if created := gjson.GetBytes(resp.Body, "created_at"); created.Exists() {
		order.CreatedAt = created.Time()
	}
	if order.PhotoURLs == nil {
		order.PhotoURLs = []string{}
	}
	return &order, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
