package fler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/donaldgifford/fler-tools/internal/fler"
)

var testCreds = fler.Credentials{PrivateKey: []byte("secret"), PublicKey: "pub"}

func fixedNow() time.Time {
	return time.Unix(1000, 0)
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...fler.Option) *fler.Client {
	t.Helper()
	opts = append([]fler.Option{fler.WithNowFunc(fixedNow)}, opts...)
	c, err := fler.NewClient(testCreds, srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidServer(t *testing.T) {
	t.Parallel()

	_, err := fler.NewClient(testCreds, "not a url")
	require.Error(t, err)

	c, err := fler.NewClient(testCreds, "")
	require.NoError(t, err)
	assert.Nil(t, c.Budget())
}

func TestClient_Ping_SignsRequest(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/rest/seller/ping", r.URL.Path)
		assert.Equal(t,
			"API1 pub 1000 ODAyOGNiY2YxZThjN2EyOWRlMzM2Y2FlNDhkMzdkMmI1YTY5NjhiZg==",
			r.Header.Get(fler.AuthHeader),
		)
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	require.NoError(t, c.Ping(context.Background()))
}

func TestClient_ServerPathIsReplaced(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rest/seller/ping", r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := fler.NewClient(testCreds, srv.URL+"/some/prefix", fler.WithNowFunc(fixedNow))
	require.NoError(t, err)
	require.NoError(t, c.Ping(context.Background()))
}

func TestClient_AccountInfo(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rest/user/account/info", r.URL.Path)
		_, _ = w.Write([]byte(`{"seller": {
			"fans_count": 10, "fler_rank": "85.2", "rating_count": 3,
			"rating_pct": 100, "products_sold_count": "42"
		}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	acct, err := c.AccountInfo(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 85.2, acct.Rank(), 0.0001)
	assert.Equal(t, int64(42), acct.Seller.ProductsSoldCount.Int())
}

func TestClient_Products(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     fler.ProductQuery
		checkReq  func(t *testing.T, r *http.Request)
		wantOrder []string
	}{
		{
			name:  "defaults",
			query: fler.ProductQuery{},
			checkReq: func(t *testing.T, r *http.Request) {
				t.Helper()
				q := r.URL.Query()
				assert.Equal(t, strings.Join(fler.DefaultProductFields, ","), q.Get("fields"))
				assert.Equal(t, fler.StatusAvailable, q.Get("type"))
				assert.Equal(t, fler.SortName, q.Get("sort"))
				assert.Empty(t, q.Get("conf"))
			},
			wantOrder: []string{"1", "2", "3"},
		},
		{
			name:  "explicit fields sort and reverse",
			query: fler.ProductQuery{Fields: []string{"is_topable", "ts_top"}, Sort: fler.SortTopDate, Reverse: true},
			checkReq: func(t *testing.T, r *http.Request) {
				t.Helper()
				q := r.URL.Query()
				assert.Equal(t, "is_topable,ts_top", q.Get("fields"))
				assert.Equal(t, fler.SortTopDate, q.Get("sort"))
			},
			wantOrder: []string{"3", "2", "1"},
		},
		{
			name:  "single product by id",
			query: fler.ProductQuery{ID: "2", Extended: true},
			checkReq: func(t *testing.T, r *http.Request) {
				t.Helper()
				q := r.URL.Query()
				assert.Equal(t, "2", q.Get("id"))
				assert.Equal(t, "extended_info", q.Get("conf"))
				assert.Empty(t, q.Get("fields"))
				assert.Empty(t, q.Get("sort"))
			},
			wantOrder: []string{"1", "2", "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/rest/seller/products/list", r.URL.Path)
				tt.checkReq(t, r)
				_, _ = w.Write([]byte(`[
					{"id": 1, "is_topable": 1, "ts_top": 1600000000},
					{"id": "2", "is_topable": 0, "ts_top": "2600000000"},
					{"id": 3, "is_topable": true, "ts_top": 1500000000}
				]`))
			}))
			defer srv.Close()

			c := newTestClient(t, srv)
			listings, err := c.Products(context.Background(), tt.query)
			require.NoError(t, err)

			ids := make([]string, 0, len(listings))
			for i := range listings {
				ids = append(ids, listings[i].ID.String())
			}
			assert.Equal(t, tt.wantOrder, ids)
		})
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantAPI     bool
		wantMessage string
		wantCode    int
		wantProto   bool
		wantQuota   bool
	}{
		{
			name:      "non-JSON body",
			status:    http.StatusBadGateway,
			body:      "<html>bad gateway</html>",
			wantProto: true,
		},
		{
			name:      "empty body",
			status:    http.StatusOK,
			body:      "",
			wantProto: true,
		},
		{
			name:        "single error string",
			status:      http.StatusOK,
			body:        `{"error": "Neplatný požadavek", "error_number": 17}`,
			wantAPI:     true,
			wantMessage: "Neplatný požadavek",
			wantCode:    17,
		},
		{
			name:        "error list uses first element",
			status:      http.StatusOK,
			body:        `{"error": ["first", "second"], "error_number": "3"}`,
			wantAPI:     true,
			wantMessage: "first",
			wantCode:    3,
		},
		{
			name:     "error number only",
			status:   http.StatusForbidden,
			body:     `{"error_number": 401}`,
			wantAPI:  true,
			wantCode: 401,
		},
		{
			name:        "quota exhausted signal",
			status:      http.StatusOK,
			body:        `{"error": "Topování není dostupné", "error_number": 1}`,
			wantAPI:     true,
			wantMessage: fler.PromotionUnavailable,
			wantCode:    1,
			wantQuota:   true,
		},
		{
			name:        "non-numeric error number",
			status:      http.StatusOK,
			body:        `{"error_number": "PRODUCT_NOT_FOUND"}`,
			wantAPI:     true,
			wantMessage: "PRODUCT_NOT_FOUND",
		},
		{
			name:        "non-numeric error number kept next to message",
			status:      http.StatusOK,
			body:        `{"error": "Produkt neexistuje", "error_number": "PRODUCT_NOT_FOUND"}`,
			wantAPI:     true,
			wantMessage: "Produkt neexistuje (PRODUCT_NOT_FOUND)",
		},
		{
			name:    "error list with empty first element",
			status:  http.StatusOK,
			body:    `{"error": ["", "Produkt neexistuje"]}`,
			wantAPI: true,
		},
		{
			name:    "quoted zero error number",
			status:  http.StatusOK,
			body:    `{"error_number": "0"}`,
			wantAPI: true,
		},
		{
			name:   "falsy error members are not errors",
			status: http.StatusOK,
			body:   `{"error": null, "error_number": 0, "seller": {}}`,
		},
		{
			name:   "empty error members are not errors",
			status: http.StatusOK,
			body:   `{"error": "", "error_number": "", "seller": {}}`,
		},
		{
			name:   "false error and empty list are not errors",
			status: http.StatusOK,
			body:   `{"error": [], "error_number": false, "seller": {}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(t, srv)
			_, err := c.AccountInfo(context.Background())

			switch {
			case tt.wantProto:
				var protoErr *fler.ProtocolError
				require.ErrorAs(t, err, &protoErr)
				assert.Equal(t, tt.status, protoErr.StatusCode)
				assert.Equal(t, tt.body, protoErr.Body)
			case tt.wantAPI:
				var apiErr *fler.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantMessage, apiErr.Message)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				assert.Equal(t, tt.wantQuota, fler.IsPromotionUnavailable(err))
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	c := newTestClient(t, srv)
	srv.Close()

	err := c.Ping(context.Background())
	var transportErr *fler.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.MethodGet, transportErr.Method)
	assert.Contains(t, transportErr.URL, "/api/rest/seller/ping")
}

func TestClient_Top(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rest/seller/products/action/top", r.URL.Path)
		assert.Equal(t, "991", r.URL.Query().Get("id"))

		auth, err := fler.ParseAuthHeader(r.Header.Get(fler.AuthHeader))
		assert.NoError(t, err)
		assert.True(t, fler.Verify(http.MethodGet, auth.Timestamp, r.URL.Path, testCreds.PrivateKey, auth.Token))

		_, _ = w.Write([]byte(`{"result": "ok"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	ack, err := c.Top(context.Background(), "991")
	require.NoError(t, err)
	assert.JSONEq(t, `{"result": "ok"}`, string(ack))
}

func TestClient_CallBudgetExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, fler.WithCallBudget(fler.NewCallBudget(100, 10, 1)))

	require.NoError(t, c.Ping(context.Background()))
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fler.ErrDailyLimitReached))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CallSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)))
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "bad" {
			_, _ = w.Write([]byte(`{"error": "Topování není dostupné"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	require.NoError(t, c.Ping(context.Background()))
	_, err := c.Top(context.Background(), "bad")
	require.Error(t, err)

	outcomes := map[string]string{}
	for _, span := range exporter.GetSpans() {
		for _, attr := range span.Attributes {
			if attr.Key == "fler.outcome" {
				outcomes[span.Name] = attr.Value.AsString()
			}
		}
	}
	assert.Equal(t, map[string]string{
		"fler /seller/ping":                "ok",
		"fler /seller/products/action/top": "quota_exhausted",
	}, outcomes)
}

func TestClient_Top_ErrorBodies(t *testing.T) {
	t.Parallel()

	bodies := []string{
		`{"error_number":"PRODUCT_NOT_FOUND"}`,
		`{"error":["","Produkt neexistuje"]}`,
		`{"error_number":"0"}`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).Top(context.Background(), "991")
			var apiErr *fler.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.False(t, fler.IsPromotionUnavailable(err))
		})
	}
}
