// Package main implements a mock Fler seller API for local development.
// It verifies X-FLER-AUTHORIZATION signatures, serves a generated product
// catalogue and enforces a per-process promotion quota so that the topping
// run can be exercised end to end without a real seller account.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/donaldgifford/fler-tools/internal/fler"
)

type mockConfig struct {
	privateKey []byte
	publicKey  string
	rank       float64
	listings   int
	quota      int
}

// catalogue is the mutable server state.
type catalogue struct {
	mu       sync.Mutex
	products []map[string]any
	quota    int
	topped   int
	now      func() time.Time
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	privateKey := flag.String("private-key", "mock-private", "private key used to verify signatures")
	publicKey := flag.String("public-key", "mock-public", "accepted public key")
	rank := flag.Float64("rank", 85, "fler_rank reported by /user/account/info")
	listings := flag.Int("listings", 12, "number of generated products")
	quota := flag.Int("quota", 4, "promotions accepted before the quota is exhausted")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := mockConfig{
		privateKey: []byte(*privateKey),
		publicKey:  *publicKey,
		rank:       *rank,
		listings:   *listings,
		quota:      *quota,
	}
	cat := newCatalogue(cfg.listings, cfg.quota, time.Now)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock Fler server", "addr", addr, "public_key", cfg.publicKey, "quota", cfg.quota)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newMux(logger, cfg, cat)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(logger *slog.Logger, cfg mockConfig, cat *catalogue) *http.ServeMux {
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return signatureCheck(logger, cfg, next)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rest/seller/ping", auth(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"result": "pong"})
	}))
	mux.HandleFunc("GET /api/rest/user/account/info", auth(accountHandler(cfg)))
	mux.HandleFunc("GET /api/rest/seller/products/list", auth(productsHandler(cat)))
	mux.HandleFunc("GET /api/rest/seller/products/action/top", auth(topHandler(logger, cat)))
	return mux
}

// newCatalogue generates n topable products whose last promotion is spread
// over the previous day. Every fourth product has never been promoted and
// every fifth cannot be promoted at all.
func newCatalogue(n, quota int, now func() time.Time) *catalogue {
	c := &catalogue{quota: quota, now: now}
	start := now()
	for i := range n {
		id := strconv.Itoa(1000 + i)
		topable := "1"
		if i%5 == 4 {
			topable = "0"
		}
		var tsTop any
		if i%4 != 3 {
			tsTop = strconv.FormatInt(start.Add(-time.Duration(i+1)*2*time.Hour).Unix(), 10)
		}
		c.products = append(c.products, map[string]any{
			"id":         id,
			"title":      "Mock product " + id,
			"price":      strconv.Itoa(100 + 10*i),
			"currency":   "CZK",
			"stock":      strconv.Itoa(i % 3),
			"is_visible": "1",
			"is_topable": topable,
			"ts_top":     tsTop,
			"url":        "https://www.fler.cz/zbozi/mock-" + id,
		})
	}
	return c
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func signatureCheck(logger *slog.Logger, cfg mockConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, err := fler.ParseAuthHeader(r.Header.Get(fler.AuthHeader))
		if err != nil {
			logger.Warn("rejecting request", "reason", err)
			writeError(w, http.StatusUnauthorized, "Missing or malformed authorization", 401)
			return
		}
		if auth.PublicKey != cfg.publicKey ||
			!fler.Verify(r.Method, auth.Timestamp, r.URL.Path, cfg.privateKey, auth.Token) {
			logger.Warn("rejecting request", "reason", "bad signature", "public_key", auth.PublicKey)
			writeError(w, http.StatusUnauthorized, "Invalid signature", 401)
			return
		}
		next(w, r)
	}
}

func accountHandler(cfg mockConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"seller": map[string]any{
				"fans_count":          "17",
				"fler_rank":           strconv.FormatFloat(cfg.rank, 'f', -1, 64),
				"rating_count":        "42",
				"rating_pct":          "98",
				"products_sold_count": "311",
			},
		})
	}
}

func productsHandler(cat *catalogue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat.mu.Lock()
		defer cat.mu.Unlock()

		if id := r.URL.Query().Get("id"); id != "" {
			for _, p := range cat.products {
				if p["id"] == id {
					writeJSON(w, http.StatusOK, []map[string]any{p})
					return
				}
			}
			writeError(w, http.StatusNotFound, "Product not found", 404)
			return
		}
		writeJSON(w, http.StatusOK, cat.products)
	}
}

func topHandler(logger *slog.Logger, cat *catalogue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")

		cat.mu.Lock()
		defer cat.mu.Unlock()

		if cat.topped >= cat.quota {
			logger.Info("quota exhausted", "id", id, "topped", cat.topped)
			writeError(w, http.StatusOK, fler.PromotionUnavailable, 1)
			return
		}
		for _, p := range cat.products {
			if p["id"] != id {
				continue
			}
			if p["is_topable"] != "1" {
				writeError(w, http.StatusOK, "Produkt nelze topovat", 2)
				return
			}
			p["ts_top"] = strconv.FormatInt(cat.now().Unix(), 10)
			cat.topped++
			logger.Info("topped", "id", id, "topped", cat.topped, "quota", cat.quota)
			writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
			return
		}
		writeError(w, http.StatusNotFound, "Product not found", 404)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, code int) {
	writeJSON(w, status, map[string]any{"error": msg, "error_number": code})
}
