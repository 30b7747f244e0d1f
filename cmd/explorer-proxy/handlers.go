package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/flare-explorer-client/internal/config"
	"github.com/Sternrassler/flare-explorer-client/pkg/checkpoint"
	"github.com/Sternrassler/flare-explorer-client/pkg/client"
	"github.com/Sternrassler/flare-explorer-client/pkg/explorer"
	"github.com/Sternrassler/flare-explorer-client/pkg/logging"
	"github.com/Sternrassler/flare-explorer-client/pkg/metrics"
	"github.com/Sternrassler/flare-explorer-client/pkg/pagination"
)

// server holds the proxy's dependencies. redis and checkpoints are nil when
// no Redis URL is configured.
type server struct {
	explorer    *explorer.Explorer
	redis       *redis.Client
	checkpoints checkpoint.Backend
	walk        config.WalkConfig
	logger      zerolog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
	Class string `json:"class,omitempty"`
}

type collectResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	Done       bool   `json:"done"`
	Pages      int    `json:"pages"`
}

type walkResponse[T any] struct {
	Items      []T    `json:"items"`
	Cursor     string `json:"cursor"`
	Done       bool   `json:"done"`
	Pages      int    `json:"pages"`
	TotalItems int    `json:"total_items"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", healthHandler)
	r.Get("/ready", s.readyHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/addresses", s.getAddresses)
		r.Get("/addresses/{hash}", s.getAddress)
		r.Get("/addresses/{hash}/transactions", s.getAddressTransactions)
		r.Get("/blocks/{number}", s.getBlock)
		r.Get("/transactions/{hash}", s.getTransaction)
		r.Get("/transactions/{hash}/internal-transactions", s.getInternalTransactions)
		r.Get("/tokens/{contract}/transfers", s.getTokenTransfers)

		r.Post("/walks/{resource}/{id}/next", s.walkNext)
		r.Delete("/walks/{resource}/{id}", s.walkReset)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed: redis unreachable")
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) getAddress(w http.ResponseWriter, r *http.Request) {
	addr, err := s.explorer.GetAddress(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

func (s *server) getAddresses(w http.ResponseWriter, r *http.Request) {
	var hashes []string
	for _, v := range r.URL.Query()["hash"] {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hashes = append(hashes, h)
			}
		}
	}
	if len(hashes) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "at least one hash query parameter is required"})
		return
	}

	addrs, err := s.explorer.GetAddresses(r.Context(), hashes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addrs)
}

func (s *server) getBlock(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil || number < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "block number must be a non-negative integer"})
		return
	}

	block, err := s.explorer.GetBlock(r.Context(), number)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

// getTransaction serves the bare transaction, or with ?internal=true the
// transaction plus its first page of internal transactions.
func (s *server) getTransaction(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	if withInternal, _ := strconv.ParseBool(r.URL.Query().Get("internal")); withInternal {
		info, err := s.explorer.GetTransactionInfo(r.Context(), hash)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
		return
	}

	tx, err := s.explorer.GetTransaction(r.Context(), hash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *server) getAddressTransactions(w http.ResponseWriter, r *http.Request) {
	servePage(s, w, r, s.explorer.AddressTransactionFetcher(chi.URLParam(r, "hash")))
}

func (s *server) getInternalTransactions(w http.ResponseWriter, r *http.Request) {
	servePage(s, w, r, s.explorer.InternalTransactionFetcher(chi.URLParam(r, "hash")))
}

func (s *server) getTokenTransfers(w http.ResponseWriter, r *http.Request) {
	servePage(s, w, r, s.explorer.TokenTransferFetcher(chi.URLParam(r, "contract")))
}

// servePage answers with the page after ?after=, or with ?all=true drains up
// to walk.MaxPages pages starting there.
func servePage[T any](s *server, w http.ResponseWriter, r *http.Request, fetch pagination.Fetcher[T]) {
	after := r.URL.Query().Get("after")

	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); !all {
		page, err := fetch(r.Context(), after)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}

	walker := pagination.NewWalker(fetch, after)
	items, err := pagination.Collect(r.Context(), walker, pagination.Config{
		MaxPages: s.walk.MaxPages,
		Timeout:  s.walk.PageTimeout,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := collectResponse[T]{
		Items: items,
		Done:  walker.Done(),
		Pages: walker.Pages(),
	}
	if resp.Items == nil {
		resp.Items = []T{}
	}
	if !walker.Done() {
		resp.NextCursor = walker.Cursor()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) walkNext(w http.ResponseWriter, r *http.Request) {
	if s.checkpoints == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "walk checkpoints require redis"})
		return
	}

	id := chi.URLParam(r, "id")
	switch chi.URLParam(r, "resource") {
	case "token-transfers":
		serveWalk(s, w, r, checkpoint.TokenTransfersKey(id), s.explorer.TokenTransferFetcher(id))
	case "internal-transactions":
		serveWalk(s, w, r, checkpoint.InternalTransactionsKey(id), s.explorer.InternalTransactionFetcher(id))
	case "address-transactions":
		serveWalk(s, w, r, checkpoint.AddressTransactionsKey(id), s.explorer.AddressTransactionFetcher(id))
	default:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown walk resource"})
	}
}

func (s *server) walkReset(w http.ResponseWriter, r *http.Request) {
	if s.checkpoints == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "walk checkpoints require redis"})
		return
	}

	id := chi.URLParam(r, "id")
	var key checkpoint.Key
	switch chi.URLParam(r, "resource") {
	case "token-transfers":
		key = checkpoint.TokenTransfersKey(id)
	case "internal-transactions":
		key = checkpoint.InternalTransactionsKey(id)
	case "address-transactions":
		key = checkpoint.AddressTransactionsKey(id)
	default:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown walk resource"})
		return
	}

	if err := s.checkpoints.Delete(r.Context(), key); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// serveWalk advances the stored walk for key by one page.
func serveWalk[T any](s *server, w http.ResponseWriter, r *http.Request, key checkpoint.Key, fetch pagination.Fetcher[T]) {
	walk, err := checkpoint.Resume(r.Context(), s.checkpoints, key, fetch)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var items []T
	if !walk.Done() {
		page, err := walk.Next(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		items = page.Items
	}
	if items == nil {
		items = []T{}
	}

	state := walk.Walker().State()
	logger := logging.ForWalk(s.logger, key.Resource, chi.URLParam(r, "id"))
	logger.Debug().
		Str(logging.FieldCheckpoint, key.String()).
		Str(logging.FieldCursor, state.Cursor).
		Int("pages", state.Pages).
		Bool("done", state.Done).
		Msg("Walk advanced")

	writeJSON(w, http.StatusOK, walkResponse[T]{
		Items:      items,
		Cursor:     state.Cursor,
		Done:       state.Done,
		Pages:      state.Pages,
		TotalItems: walk.Items(),
	})
}

// writeError maps a classified error to an HTTP status.
func (s *server) writeError(w http.ResponseWriter, err error) {
	class := client.Classify(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, explorer.ErrNotFound):
		status = http.StatusNotFound
	case class == client.ErrorClassPrecondition:
		status = http.StatusBadRequest
	case class == client.ErrorClassQuery:
		status = http.StatusUnprocessableEntity
	case class == client.ErrorClassBadResponseCode, class == client.ErrorClassTransport,
		errors.Is(err, pagination.ErrMalformedPage), errors.Is(err, pagination.ErrStalledCursor):
		status = http.StatusBadGateway
	}

	event := s.logger.Warn()
	if status == http.StatusInternalServerError {
		event = s.logger.Error()
	}
	event.Err(err).
		Str(logging.FieldErrorClass, string(class)).
		Int(logging.FieldStatusCode, status).
		Msg("Request failed")

	writeJSON(w, status, errorResponse{Error: err.Error(), Class: string(class)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
