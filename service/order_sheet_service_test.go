package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fotokeramika/models"
	"fotokeramika/repository"
)

func newTestSheetService(t *testing.T, repo *fakeOrderRepository, orders *OrderService) *OrderSheetService {
	t.Helper()
	engine, c := testEngineAndCatalog(t)
	svc, err := NewOrderSheetService(OrderSheetConfig{Engine: engine, Catalog: c, Orders: repo, Wizard: orders})
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestOrderSheet_DraftFromWizard(t *testing.T) {
	repo := &fakeOrderRepository{}
	orders := newTestOrderService(t, repo, &fakeStorage{})
	sheets := newTestSheetService(t, repo, orders)

	id := orders.StartWizard().ID
	_, err := orders.Update(id, models.OrderUpdateRequest{
		ServiceType: ptr(models.ServicePhotoCeramics),
		Size:        ptr("13×18"),
		Material:    ptr("glass"),
		CustomText:  ptr("Помним <и> любим"),
		Options:     &models.OrderOptionsRequest{Retouch: ptr(models.RetouchAdvanced), QRBiography: ptr(true)},
	})
	require.NoError(t, err)

	sheet, err := sheets.FromWizard(id)
	require.NoError(t, err)
	assert.Equal(t, "Фотокерамика", sheet.Title)
	assert.Equal(t, "черновик", sheet.Status)
	assert.Empty(t, sheet.OrderNumber)
	assert.Equal(t, "1 900 ₽", sheet.Total)
	assert.Equal(t, []SheetLine{
		{Label: "Изготовление 13×18", Amount: "800 ₽"},
		{Label: "Ретушь: Сложная", Amount: "+600 ₽"},
		{Label: "QR-код с биографией", Amount: "+500 ₽"},
	}, sheet.Lines)

	html, err := sheets.RenderHTML(sheet)
	require.NoError(t, err)
	body := string(html)
	assert.Contains(t, body, "<title>Фотокерамика</title>")
	assert.Contains(t, body, "Стекло")
	assert.Contains(t, body, "13×18 см")
	assert.Contains(t, body, "Помним &lt;и&gt; любим")
	assert.NotContains(t, body, "Фотографии")
}

func TestOrderSheet_SubmittedOrderFromWizard(t *testing.T) {
	repo := &fakeOrderRepository{}
	orders := newTestOrderService(t, repo, &fakeStorage{})
	sheets := newTestSheetService(t, repo, orders)

	id := orders.StartWizard().ID
	_, err := orders.Update(id, models.OrderUpdateRequest{Options: &models.OrderOptionsRequest{Subscription: ptr("10")}})
	require.NoError(t, err)
	_, err = orders.AddPhoto(id, "photo.png", pngBytes(t, 40, 40))
	require.NoError(t, err)
	order, err := orders.Submit(context.Background(), id, models.Anonymous)
	require.NoError(t, err)

	sheet, err := sheets.FromWizard(id)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, sheet.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, sheet.Status)
	assert.Equal(t, "2 700 ₽", sheet.Total)
	assert.Equal(t, "Подписка на 10 изделий", sheet.Lines[0].Label)
	assert.Equal(t, []string{"https://cdn.example/photo_thumb.jpg"}, sheet.Photos)

	html, err := sheets.RenderHTML(sheet)
	require.NoError(t, err)
	assert.Contains(t, string(html), `<img src="https://cdn.example/photo_thumb.jpg"`)
}

func TestOrderSheet_FromStoredOrder(t *testing.T) {
	repo := &fakeOrderRepository{}
	orders := newTestOrderService(t, repo, &fakeStorage{})
	sheets := newTestSheetService(t, repo, orders)

	cfg := models.NewOrderConfiguration()
	cfg.ServiceType = models.ServicePlateOnly
	cfg.Options.PlateOnly = true
	record := models.NewOrderRecord("user-1", "ORD-42", cfg, 600, []string{"https://cdn.example/plate-design.png"})
	_, err := repo.SubmitOrder(context.Background(), record)
	require.NoError(t, err)
	owner := models.Identity{Authenticated: true, UserID: "user-1"}

	sheet, err := sheets.FromOrder(context.Background(), "ORD-42", owner)
	require.NoError(t, err)
	assert.Equal(t, "Только табличка", sheet.Title)
	assert.Equal(t, "ORD-42", sheet.OrderNumber)
	assert.Equal(t, "600 ₽", sheet.Total)
	assert.Equal(t, "Табличка", sheet.Lines[0].Label)
	assert.Equal(t, fixedNow.Format("02.01.2006 15:04"), sheet.Date)

	_, err = sheets.FromOrder(context.Background(), "ORD-0", owner)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestOrderSheet_StoredOrderBelongsToItsUser(t *testing.T) {
	repo := &fakeOrderRepository{}
	orders := newTestOrderService(t, repo, &fakeStorage{})
	sheets := newTestSheetService(t, repo, orders)

	for _, record := range []*models.OrderRecord{
		models.NewOrderRecord("user-1", "ORD-1", models.NewOrderConfiguration(), 800, nil),
		models.NewOrderRecord("", "ORD-2", models.NewOrderConfiguration(), 800, nil),
	} {
		_, err := repo.SubmitOrder(context.Background(), record)
		require.NoError(t, err)
	}

	_, err := sheets.FromOrder(context.Background(), "ORD-1", models.Anonymous)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)

	stranger := models.Identity{Authenticated: true, UserID: "user-2"}
	_, err = sheets.FromOrder(context.Background(), "ORD-1", stranger)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
	_, err = sheets.FromOrder(context.Background(), "ORD-2", stranger)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)

	_, err = sheets.FromOrder(context.Background(), "ORD-1", models.Identity{Authenticated: true, UserID: "user-1"})
	assert.NoError(t, err)
}

func TestDetectChromePath_PrefersConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))

	assert.Equal(t, path, detectChromePath(path))
	assert.NotEqual(t, "/nonexistent/chrome", detectChromePath("/nonexistent/chrome"))
}
