// Package main runs the explorer backend: the node client, currency
// registry, spam classifier and transaction normalizer wired behind a
// small JSON API, plus the live transaction feed and Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"sks-explorer/internal/currency"
	"sks-explorer/internal/domain"
	"sks-explorer/internal/node"
	"sks-explorer/internal/normalizer"
	"sks-explorer/internal/observability"
	"sks-explorer/internal/spam"
)

const defaultTxLimit = 50

// Server holds the wired components and request-path state.
type Server struct {
	client     *node.Client
	registry   *currency.Registry
	classifier *spam.Classifier
	norm       *normalizer.Normalizer
	logger     *log.Logger

	// recent is a ring of normalized transactions from the live feed,
	// newest first.
	recentMu   sync.RWMutex
	recent     []domain.NormalizedTransaction
	recentSize int
}

func main() {
	loadEnvFile()

	// Parse flags (env vars as defaults)
	nodeAPI := flag.String("node-api", os.Getenv("NODE_API_URL"), "Node REST API base URL")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("NODE_WS_URL"), "Node blockchain updates WebSocket URL (optional)")
	spamListURL := flag.String("spam-list-url", os.Getenv("SPAM_LIST_URL"), "Spam asset denylist URL")
	listenAddr := flag.String("listen", ":8080", "HTTP listen address")
	spamRefresh := flag.Duration("spam-refresh", 10*time.Minute, "Spam denylist refresh interval")
	recentSize := flag.Int("recent-size", 100, "Number of live transactions kept for the recent view")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[explorer] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *nodeAPI == "" {
		logger.Fatal("--node-api is required")
	}

	client := node.NewClient(*nodeAPI, node.WithSpamListURL(*spamListURL))
	registry := currency.NewRegistry(client)
	classifier := spam.NewClassifier()

	srv := &Server{
		client:     client,
		registry:   registry,
		classifier: classifier,
		norm: normalizer.New(normalizer.Options{
			Currencies:   registry,
			Spam:         classifier,
			StateChanges: client,
		}),
		logger:     logger,
		recentSize: *recentSize,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Preload the spam denylist; IsSpam stays a pure lookup afterwards.
	if *spamListURL != "" {
		if err := classifier.Refresh(ctx, client); err != nil {
			logger.Printf("initial spam list load failed: %v", err)
		} else {
			logger.Printf("spam denylist loaded: %d assets", classifier.Size())
		}
		go srv.refreshSpamLoop(ctx, *spamRefresh)
	}

	// Live feed is optional; the API works without it.
	if *wsEndpoint != "" {
		feed, err := node.NewFeed(ctx, *wsEndpoint, nil, logger)
		if err != nil {
			logger.Printf("live feed unavailable: %v", err)
		} else {
			defer feed.Close()
			go srv.consumeFeed(ctx, feed)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /transactions/recent", srv.handleRecent)
	mux.HandleFunc("GET /transactions/{id}", srv.handleTransaction)
	mux.HandleFunc("GET /addresses/{address}/transactions", srv.handleAddressTransactions)
	mux.HandleFunc("GET /addresses/{address}/balance", srv.handleBalance)
	mux.Handle("GET /metrics", observability.Handler())

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: mux,
	}

	go func() {
		logger.Printf("listening on %s", *listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}

// refreshSpamLoop keeps the denylist current. Failures keep the previous
// list in effect.
func (s *Server) refreshSpamLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.classifier.Refresh(ctx, s.client); err != nil {
				s.logger.Printf("spam list refresh failed: %v", err)
			}
		}
	}
}

// consumeFeed normalizes live transactions at summary detail into the
// recent ring. Normalization failures only drop the one record.
func (s *Server) consumeFeed(ctx context.Context, feed *node.Feed) {
	for {
		select {
		case <-ctx.Done():
			return
		case tx, ok := <-feed.Transactions():
			if !ok {
				return
			}
			normalized, err := s.norm.Normalize(ctx, tx, normalizer.DetailSummary)
			if err != nil {
				s.logger.Printf("live transaction %s dropped: %v", tx.ID, err)
				continue
			}
			s.pushRecent(normalized)
		}
	}
}

func (s *Server) pushRecent(tx domain.NormalizedTransaction) {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()

	s.recent = append([]domain.NormalizedTransaction{tx}, s.recent...)
	if len(s.recent) > s.recentSize {
		s.recent = s.recent[:s.recentSize]
	}
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	s.recentMu.RLock()
	recent := make([]domain.NormalizedTransaction, len(s.recent))
	copy(recent, s.recent)
	s.recentMu.RUnlock()

	respondJSON(w, http.StatusOK, recent)
}

func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	txID := r.PathValue("id")

	detail := normalizer.DetailFull
	if r.URL.Query().Get("detail") == "summary" {
		detail = normalizer.DetailSummary
	}

	raw, err := s.client.TransactionByID(r.Context(), txID)
	if err != nil {
		if node.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "transaction not found")
			return
		}
		s.logger.Printf("load transaction %s: %v", txID, err)
		respondError(w, http.StatusBadGateway, "failed to load transaction data")
		return
	}

	normalized, err := s.norm.Normalize(r.Context(), raw, detail)
	if err != nil {
		s.logger.Printf("normalize transaction %s: %v", txID, err)
		respondError(w, http.StatusBadGateway, "failed to load transaction data")
		return
	}

	respondJSON(w, http.StatusOK, normalized)
}

func (s *Server) handleAddressTransactions(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	limit := defaultTxLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	after := r.URL.Query().Get("after")

	raw, err := s.client.TransactionsByAddress(r.Context(), address, limit, after)
	if err != nil {
		s.logger.Printf("load transactions for %s: %v", address, err)
		respondError(w, http.StatusBadGateway, "failed to load transaction data")
		return
	}

	normalized, err := s.norm.NormalizeAll(r.Context(), raw)
	if err != nil {
		s.logger.Printf("normalize transactions for %s: %v", address, err)
		respondError(w, http.StatusBadGateway, "failed to load transaction data")
		return
	}

	respondJSON(w, http.StatusOK, normalized)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	balance, err := s.client.BalanceDetails(r.Context(), address)
	if err != nil {
		s.logger.Printf("load balance for %s: %v", address, err)
		respondError(w, http.StatusBadGateway, "failed to load balance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"regular":    domain.FromCoins(balance.Regular, domain.SKS).String(),
		"generating": domain.FromCoins(balance.Generating, domain.SKS).String(),
		"available":  domain.FromCoins(balance.Available, domain.SKS).String(),
		"effective":  domain.FromCoins(balance.Effective, domain.SKS).String(),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
