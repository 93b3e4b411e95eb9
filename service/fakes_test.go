package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fotokeramika/catalog"
	"fotokeramika/models"
	"fotokeramika/pricing"
	"fotokeramika/repository"
)

var fixedNow = time.UnixMilli(1718000000123)

type fakeOrderRepository struct {
	mu      sync.Mutex
	records []*models.OrderRecord
	err     error
}

func (r *fakeOrderRepository) SubmitOrder(_ context.Context, record *models.OrderRecord) (models.OrderID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", &models.PersistenceError{Op: "insert", Err: r.err}
	}
	r.records = append(r.records, record)
	return models.OrderID(fmt.Sprintf("%d", len(r.records))), nil
}

func (r *fakeOrderRepository) GetByOrderNumber(_ context.Context, orderNumber string) (*models.StoredOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rec := range r.records {
		if rec.OrderNumber == orderNumber {
			return &models.StoredOrder{ID: models.OrderID(fmt.Sprintf("%d", i+1)), CreatedAt: fixedNow, OrderRecord: *rec}, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

type fakeStorage struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (s *fakeStorage) UploadAsset(_ context.Context, data []byte, suggestedName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", &models.UploadError{Name: suggestedName, Err: s.err}
	}
	s.uploads = append(s.uploads, suggestedName)
	return "https://cdn.example/" + suggestedName, nil
}

func (s *fakeStorage) PublicURLPrefix() string {
	return "https://cdn.example/"
}

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

// slowRef blocks in fakeLoader until its context ends
const slowRef = "https://cdn.example/slow.jpg"

// fakeLoader serves generated images by reference and records every reference it was asked for
type fakeLoader struct {
	mu      sync.Mutex
	images  map[string]image.Image
	entered chan struct{}
	fetched []string
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{images: make(map[string]image.Image), entered: make(chan struct{}, 1)}
}

func (l *fakeLoader) add(ref string, w, h int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.images[ref] = solidImage(w, h)
}

func (l *fakeLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	l.mu.Lock()
	l.fetched = append(l.fetched, ref)
	l.mu.Unlock()
	if ref == slowRef {
		l.entered <- struct{}{}
		<-ctx.Done()
		return nil, &models.AssetLoadError{Ref: ref, Err: ctx.Err()}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	img, ok := l.images[ref]
	if !ok {
		return nil, &models.AssetLoadError{Ref: ref, Err: errors.New("status 404")}
	}
	return img, nil
}

func solidImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 180, G: 120, B: 60, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(w, h)))
	return buf.Bytes()
}

func testEngineAndCatalog(t *testing.T) (*pricing.Engine, *catalog.Catalog) {
	t.Helper()
	engine, err := pricing.NewEngine()
	require.NoError(t, err)
	c, err := catalog.Load()
	require.NoError(t, err)
	return engine, c
}

func newTestOrderService(t *testing.T, repo *fakeOrderRepository, store *fakeStorage) *OrderService {
	t.Helper()
	engine, c := testEngineAndCatalog(t)
	svc := NewOrderService(OrderServiceConfig{
		Engine:        engine,
		Catalog:       c,
		Orders:        repo,
		Storage:       store,
		WhatsAppPhone: "79999999999",
	})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func ptr[T any](v T) *T { return &v }
