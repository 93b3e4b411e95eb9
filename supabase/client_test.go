package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{URL: srv.URL + "/", APIKey: "anon-key", HTTPClient: srv.Client()})
	require.NoError(t, err)
	return client
}

func TestNew_RequiresURLAndKey(t *testing.T) {
	_, err := New(Config{APIKey: "k"})
	assert.Error(t, err)
	_, err = New(Config{URL: "http://x"})
	assert.Error(t, err)
}

func TestExecuteInsert(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/orders", r.URL.Path)
		assert.Equal(t, "id", r.URL.Query().Get("select"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ORD-1", body["order_number"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"42"}]`))
	})

	resp, err := client.From("orders").Select("id").ExecuteInsert(context.Background(), map[string]string{"order_number": "ORD-1"})
	require.NoError(t, err)
	require.NoError(t, resp.Error())
	assert.JSONEq(t, `[{"id":"42"}]`, string(resp.Body))
}

func TestExecute_SelectWithFilters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.ORD-1", r.URL.Query().Get("order_number"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "application/vnd.pgrst.object+json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"id":"42"}`))
	})

	resp, err := client.From("orders").Select("*").Eq("order_number", "ORD-1").Limit(1).Single().Execute(context.Background())
	require.NoError(t, err)

	var row struct {
		ID string `json:"id"`
	}
	require.NoError(t, resp.JSON(&row))
	assert.Equal(t, "42", row.ID)
}

func TestStorageUploadAndPublicURL(t *testing.T) {
	var gotPath, gotType string
	var gotBody []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"Key":"order-photos/1-a.png"}`))
	})

	bucket := client.Storage().From("order-photos")
	resp, err := bucket.Upload(context.Background(), "1-a b.png", []byte("png"), "image/png")
	require.NoError(t, err)
	require.NoError(t, resp.Error())

	assert.Equal(t, "/storage/v1/object/order-photos/1-a%20b.png", gotPath)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, []byte("png"), gotBody)
	assert.Equal(t, client.baseURL+"/storage/v1/object/public/order-photos/1-a%20b.png", bucket.GetPublicURL("1-a b.png"))
}

func TestAuthGetUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid JWT"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u-1","email":"a@b.ru"}`))
	})

	user, err := client.Auth().GetUser(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)

	_, err = client.Auth().GetUser(context.Background(), "bad")
	assert.EqualError(t, err, "supabase error: invalid JWT")
}

func TestResponseError(t *testing.T) {
	assert.NoError(t, (&Response{StatusCode: 201}).Error())
	assert.EqualError(t, (&Response{StatusCode: 500, Body: []byte("oops")}).Error(), "supabase error: status 500")
	assert.EqualError(t, (&Response{StatusCode: 400, Body: []byte(`{"error":"Bucket not found"}`)}).Error(), "supabase error: Bucket not found")
}
