package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		BaseURL:        server.URL,
		Token:          "test-token",
		TimeoutSeconds: 5,
	}, zap.NewNop())
	require.NoError(t, err)
	return client, server
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, (&Config{Token: "t", TimeoutSeconds: 5}).Validate())
	assert.Error(t, (&Config{BaseURL: "http://x", TimeoutSeconds: 5}).Validate())
	assert.Error(t, (&Config{BaseURL: "http://x", Token: "t"}).Validate())
	assert.NoError(t, (&Config{BaseURL: "http://x", Token: "t", TimeoutSeconds: 5}).Validate())
}

func TestFetchProducts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/export/articulos", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"articulos": []map[string]any{
				{
					"codigo":      "ART-001",
					"descripcion": "Tornillo M6",
					"marca":       "Acme",
					"precio":      "1.234,56",
					"exportable":  "S",
					"imagen":      `C:\fotos\art001.jpg`,
					"tarifas": []map[string]any{
						{"tarifa": "T1", "divisa": "EUR", "importe": "12,50"},
					},
				},
			},
		})
	}))

	snap, err := client.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)

	rec := snap.Records[0]
	assert.Equal(t, "ART-001", rec.Code)
	assert.Equal(t, "1.234,56", rec.ListPrice)
	assert.Equal(t, "S", rec.Exportable)
	require.Len(t, rec.Prices, 1)
	assert.Equal(t, "12,50", rec.Prices[0].Amount)
}

func TestFetchStockErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.FetchStock(context.Background())
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestFetchClientsInvalidBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))

	_, err := client.FetchClients(context.Background())
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestFetchUnavailable(t *testing.T) {
	client, err := NewClient(&Config{
		BaseURL:        "http://127.0.0.1:1",
		Token:          "t",
		TimeoutSeconds: 1,
	}, nil)
	require.NoError(t, err)

	_, err = client.FetchZones(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSubmitOrder(t *testing.T) {
	var received OrderSubmission
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/import/pedidos", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))

	err := client.SubmitOrder(context.Background(), &OrderSubmission{
		Number:      "ORD-20250101-ABCD1234",
		ClientCode:  "CLI-9",
		DiscountPct: "10.00",
		Lines: []OrderSubmissionLine{
			{ProductCode: "ART-001", Quantity: "2", UnitPrice: "12.50", LineTotal: "25.00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-20250101-ABCD1234", received.Number)
	require.Len(t, received.Lines, 1)
	assert.Equal(t, "25.00", received.Lines[0].LineTotal)
}

func TestSubmitOrderLogsReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"pedido":"12345"}`))
	}))
	t.Cleanup(server.Close)

	core, logs := observer.New(zapcore.DebugLevel)
	client, err := NewClient(&Config{
		BaseURL:        server.URL,
		Token:          "t",
		TimeoutSeconds: 5,
	}, zap.New(core))
	require.NoError(t, err)

	require.NoError(t, client.SubmitOrder(context.Background(), &OrderSubmission{Number: "ORD-X"}))

	entries := logs.FilterMessage("ledger order intake reply").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "ORD-X", fields["number"])
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.Equal(t, `{"pedido":"12345"}`, fields["body"])
}

func TestSubmitOrderRejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	err := client.SubmitOrder(context.Background(), &OrderSubmission{Number: "ORD-X"})
	assert.ErrorIs(t, err, ErrRequestFailed)
}
