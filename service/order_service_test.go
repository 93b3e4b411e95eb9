package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fotokeramika/models"
)

func TestWizard_PriceFollowsEveryUpdate(t *testing.T) {
	svc := newTestOrderService(t, &fakeOrderRepository{}, &fakeStorage{})

	state := svc.StartWizard()
	assert.Equal(t, int64(0), state.Quote.Total)
	assert.Equal(t, models.BaseSourceNone, state.Quote.BaseSource)

	state, err := svc.Update(state.ID, models.OrderUpdateRequest{
		ServiceType: ptr(models.ServicePhotoCeramics),
		Size:        ptr("13x18"),
		Material:    ptr("ceramic-italy"),
	})
	require.NoError(t, err)
	assert.Equal(t, "13×18", state.Config.Size)
	assert.Equal(t, int64(800), state.Quote.Total)

	state, err = svc.Update(state.ID, models.OrderUpdateRequest{
		Options: &models.OrderOptionsRequest{Retouch: ptr(models.RetouchBasic)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1100), state.Quote.Total)

	state, err = svc.Update(state.ID, models.OrderUpdateRequest{ServiceType: ptr(models.ServicePlateOnly)})
	require.NoError(t, err)
	assert.True(t, state.Config.Options.PlateOnly)
	assert.Equal(t, int64(900), state.Quote.Total)

	state, err = svc.Update(state.ID, models.OrderUpdateRequest{ServiceType: ptr(models.ServiceCeramicPortrait)})
	require.NoError(t, err)
	assert.False(t, state.Config.Options.PlateOnly)
	assert.Equal(t, int64(1100), state.Quote.Total)
}

func TestWizard_Subscription(t *testing.T) {
	svc := newTestOrderService(t, &fakeOrderRepository{}, &fakeStorage{})
	id := svc.StartWizard().ID

	state, err := svc.Update(id, models.OrderUpdateRequest{
		Size:    ptr("200×90"),
		Options: &models.OrderOptionsRequest{Subscription: ptr("30"), QRBiography: ptr(true)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7500), state.Quote.Total)

	state, err = svc.Update(id, models.OrderUpdateRequest{Options: &models.OrderOptionsRequest{Subscription: ptr("")}})
	require.NoError(t, err)
	assert.Nil(t, state.Config.Options.Subscription)
	assert.NotEqual(t, int64(7500), state.Quote.Total)
}

func TestWizard_RejectsInvalidUpdatesAtomically(t *testing.T) {
	svc := newTestOrderService(t, &fakeOrderRepository{}, &fakeStorage{})
	id := svc.StartWizard().ID
	_, err := svc.Update(id, models.OrderUpdateRequest{Size: ptr("13×18")})
	require.NoError(t, err)

	invalid := []models.OrderUpdateRequest{
		{ServiceType: ptr(models.ServiceType("tattoo"))},
		{Size: ptr("big"), Material: ptr("glass")},
		{Material: ptr("wood")},
		{Options: &models.OrderOptionsRequest{Retouch: ptr(models.RetouchTier("magic"))}},
		{Options: &models.OrderOptionsRequest{Subscription: ptr("25")}},
		{Material: ptr("glass"), Size: ptr("0×10")},
		{Size: ptr("70×91")},
		{Size: ptr("4000000000×4000000000")},
	}
	for _, req := range invalid {
		_, err := svc.Update(id, req)
		var cfgErr *models.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	}

	state, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "13×18", state.Config.Size)
	assert.Empty(t, state.Config.Material)
	assert.Equal(t, int64(800), state.Quote.Total)
}

func TestWizard_OnlyCatalogSizes(t *testing.T) {
	svc := newTestOrderService(t, &fakeOrderRepository{}, &fakeStorage{})
	id := svc.StartWizard().ID

	state, err := svc.Update(id, models.OrderUpdateRequest{Size: ptr("70x90")})
	require.NoError(t, err)
	assert.Equal(t, "70×90", state.Config.Size)
	assert.Equal(t, int64(9450), state.Quote.Total)

	for _, size := range []string{"3037000500×3037000500", "9223372036854775807×2", "71×90"} {
		_, err := svc.Update(id, models.OrderUpdateRequest{Size: ptr(size)})
		var cfgErr *models.ConfigurationError
		require.ErrorAs(t, err, &cfgErr, "size %q", size)
		assert.Equal(t, "size", cfgErr.Field)
	}

	state, err = svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "70×90", state.Config.Size)
	assert.Positive(t, state.Quote.Total)
}

func TestWizard_UnknownSession(t *testing.T) {
	svc := newTestOrderService(t, &fakeOrderRepository{}, &fakeStorage{})

	_, err := svc.Get("nope")
	assert.ErrorIs(t, err, ErrWizardNotFound)
	_, err = svc.Submit(context.Background(), "nope", models.Anonymous)
	assert.ErrorIs(t, err, ErrWizardNotFound)
}

func TestWizard_Photos(t *testing.T) {
	svc := newTestOrderService(t, &fakeOrderRepository{}, &fakeStorage{})
	id := svc.StartWizard().ID

	_, err := svc.AddPhotoURL(id, "https://cdn.example/design.png", false)
	require.NoError(t, err)
	state, err := svc.AddPhoto(id, "grandpa.jpg", []byte("jpeg"))
	require.NoError(t, err)
	require.Len(t, state.Photos, 2)
	assert.Equal(t, "design.png", state.Photos[0].Name)
	assert.False(t, state.Photos[0].Pending)
	assert.True(t, state.Photos[1].Pending)

	_, err = svc.AddPhoto(id, "empty.jpg", nil)
	assert.Error(t, err)

	_, err = svc.RemovePhoto(id, 5)
	assert.ErrorIs(t, err, ErrPhotoNotFound)

	state, err = svc.RemovePhoto(id, 0)
	require.NoError(t, err)
	require.Len(t, state.Photos, 1)
	assert.Equal(t, "grandpa.jpg", state.Photos[0].Name)
	assert.Empty(t, state.Config.PhotoURLs)
}

func TestWizard_PlateDesignSwitchesService(t *testing.T) {
	svc := newTestOrderService(t, &fakeOrderRepository{}, &fakeStorage{})
	id := svc.StartWizard().ID

	state, err := svc.AddPhotoURL(id, "https://cdn.example/plate-design.png", true)
	require.NoError(t, err)
	assert.Equal(t, models.ServicePlateOnly, state.Config.ServiceType)
	assert.Equal(t, int64(600), state.Quote.Total)
}

func TestSubmit_PersistsAndResets(t *testing.T) {
	repo := &fakeOrderRepository{}
	store := &fakeStorage{}
	svc := newTestOrderService(t, repo, store)
	id := svc.StartWizard().ID

	_, err := svc.Update(id, models.OrderUpdateRequest{
		ServiceType: ptr(models.ServicePhotoCeramics),
		Size:        ptr("13×18"),
		Material:    ptr("ceramic-italy"),
		Options:     &models.OrderOptionsRequest{QRBiography: ptr(true)},
	})
	require.NoError(t, err)
	_, err = svc.AddPhoto(id, "grandpa.png", pngBytes(t, 900, 600))
	require.NoError(t, err)

	identity := models.Identity{Authenticated: true, UserID: "user-1"}
	order, err := svc.Submit(context.Background(), id, identity)
	require.NoError(t, err)

	assert.Equal(t, models.OrderID("1"), order.ID)
	assert.Equal(t, "ORD-1718000000123", order.OrderNumber)
	assert.Equal(t, int64(1300), order.Price)
	assert.Equal(t, []string{"https://cdn.example/grandpa_thumb.jpg"}, order.Thumbnails)

	require.Len(t, repo.records, 1)
	record := repo.records[0]
	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, int64(1300), record.Price)
	assert.Equal(t, models.OrderStatusPending, record.Status)
	assert.Equal(t, []string{"https://cdn.example/grandpa.png"}, record.PhotoURLs)
	assert.True(t, record.Options.QRBiography)

	link, err := url.Parse(order.WhatsAppLink)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", link.Host)
	assert.Equal(t, "/79999999999", link.Path)
	message := link.Query().Get("text")
	assert.Contains(t, message, "Новый заказ ORD-1718000000123")
	assert.Contains(t, message, "Услуга: Фотокерамика")
	assert.Contains(t, message, "Материал: Керамогранит (Италия)")
	assert.Contains(t, message, "Стоимость: 1 300 ₽")
	assert.NotContains(t, order.WhatsAppLink, "+")

	state, err := svc.Get(id)
	require.NoError(t, err)
	assert.Empty(t, state.Config.Size)
	assert.Empty(t, state.Photos)
	require.NotNil(t, state.LastOrder)
	assert.Equal(t, order.OrderNumber, state.LastOrder.OrderNumber)
}

func TestSubmit_PersistenceFailureKeepsConfiguration(t *testing.T) {
	repo := &fakeOrderRepository{err: errors.New("db down")}
	store := &fakeStorage{}
	svc := newTestOrderService(t, repo, store)
	id := svc.StartWizard().ID

	_, err := svc.Update(id, models.OrderUpdateRequest{Size: ptr("18×24")})
	require.NoError(t, err)
	_, err = svc.AddPhoto(id, "photo.png", pngBytes(t, 50, 50))
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), id, models.Anonymous)
	var persistenceErr *models.PersistenceError
	require.ErrorAs(t, err, &persistenceErr)

	state, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "18×24", state.Config.Size)
	require.Len(t, state.Photos, 1)
	assert.False(t, state.Photos[0].Pending, "uploaded photo stays attached")
	uploads := store.count()

	repo.err = nil
	order, err := svc.Submit(context.Background(), id, models.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, uploads, store.count(), "retry does not upload again")
	assert.Equal(t, []string{"https://cdn.example/photo.png"}, order.Config.PhotoURLs)
	assert.Empty(t, repo.records[0].UserID)
}

func TestSubmit_UploadFailureKeepsPendingPhotos(t *testing.T) {
	repo := &fakeOrderRepository{}
	store := &fakeStorage{err: errors.New("bucket missing")}
	svc := newTestOrderService(t, repo, store)
	id := svc.StartWizard().ID

	_, err := svc.AddPhoto(id, "photo.png", pngBytes(t, 20, 20))
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), id, models.Anonymous)
	var uploadErr *models.UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Empty(t, repo.records)

	state, err := svc.Get(id)
	require.NoError(t, err)
	require.Len(t, state.Photos, 1)
	assert.True(t, state.Photos[0].Pending)
}

func TestSubmit_RequiresAuthenticationWhenConfigured(t *testing.T) {
	repo := &fakeOrderRepository{}
	svc := newTestOrderService(t, repo, &fakeStorage{})
	svc.requireAuth = true
	id := svc.StartWizard().ID

	_, err := svc.Submit(context.Background(), id, models.Anonymous)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Empty(t, repo.records)

	_, err = svc.Submit(context.Background(), id, models.Identity{Authenticated: true, UserID: "u"})
	assert.NoError(t, err)
}

func TestWizard_Reset(t *testing.T) {
	svc := newTestOrderService(t, &fakeOrderRepository{}, &fakeStorage{})
	id := svc.StartWizard().ID
	_, err := svc.Update(id, models.OrderUpdateRequest{Size: ptr("30×40"), CustomText: ptr("  Помним  ")})
	require.NoError(t, err)

	state, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Помним", state.Config.CustomText)

	state, err = svc.Reset(id)
	require.NoError(t, err)
	assert.Equal(t, models.NewOrderConfiguration(), state.Config)
}

func TestWizard_EvictIdle(t *testing.T) {
	svc := newTestOrderService(t, &fakeOrderRepository{}, &fakeStorage{})
	id := svc.StartWizard().ID

	assert.Equal(t, 0, svc.EvictIdle(fixedNow.Add(time.Hour), 2*time.Hour))
	assert.Equal(t, 1, svc.EvictIdle(fixedNow.Add(3*time.Hour), 2*time.Hour))

	_, err := svc.Get(id)
	assert.ErrorIs(t, err, ErrWizardNotFound)
}
