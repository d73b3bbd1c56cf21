// Package devserver is a small order-taking HTTP backend for exercising the
// coordinator against a real network: it redirects after POST like a typical
// form application and can inject latency and failures on demand.
package devserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Order is one accepted submission.
type Order struct {
	ID        string    `json:"id"`
	Item      string    `json:"item"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

type orderForm struct {
	Item     string `validate:"required,max=200"`
	Quantity int    `validate:"min=1,max=1000"`
}

// Faults configures injected misbehaviour. The zero value injects nothing.
type Faults struct {
	Latency   time.Duration `json:"latency_ns"`
	FailEvery int           `json:"fail_every"` // fail every Nth request, 0 disables
	Status    int           `json:"status"`     // status used for injected failures, 503 when 0
}

// Server holds the in-memory order book.
type Server struct {
	logger   *slog.Logger
	validate *validator.Validate

	mu     sync.Mutex
	orders []Order
	faults Faults
	served int
}

// New builds an empty Server.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:   logger.With("component", "devserver"),
		validate: validator.New(),
	}
}

// SetFaults replaces the injected faults.
func (s *Server) SetFaults(f Faults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = f
	s.served = 0
}

// Orders returns the accepted orders in creation order.
func (s *Server) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Order(nil), s.orders...)
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	// Fault controls bypass injection so a failing server can be healed.
	r.Put("/_faults/", s.putFaults)

	r.Group(func(r chi.Router) {
		r.Use(s.injectFaults)
		r.Get("/health/", s.health)
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", s.listOrders)
			r.Post("/", s.createOrder)
			r.Get("/{id}/", s.getOrder)
		})
	})
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f := s.faults
		s.served++
		fail := f.FailEvery > 0 && s.served%f.FailEvery == 0
		s.mu.Unlock()

		if f.Latency > 0 {
			select {
			case <-time.After(f.Latency):
			case <-r.Context().Done():
				return
			}
		}
		if fail {
			status := f.Status
			if status == 0 {
				status = http.StatusServiceUnavailable
			}
			respondError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) putFaults(w http.ResponseWriter, r *http.Request) {
	var f Faults
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		respondError(w, http.StatusBadRequest, "invalid fault configuration")
		return
	}
	if f.FailEvery < 0 || (f.Status != 0 && (f.Status < 400 || f.Status > 599)) {
		respondError(w, http.StatusBadRequest, "invalid fault configuration")
		return
	}
	s.SetFaults(f)
	s.logger.Info("faults updated", "latency", f.Latency, "fail_every", f.FailEvery, "status", f.Status)
	respondJSON(w, http.StatusOK, f)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listOrders(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.Orders())
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			respondJSON(w, http.StatusOK, o)
			return
		}
	}
	respondError(w, http.StatusNotFound, "order not found")
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form")
		return
	}
	form := orderForm{Item: strings.TrimSpace(r.PostForm.Get("item")), Quantity: 1}
	if raw := strings.TrimSpace(r.PostForm.Get("qty")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "qty must be a number")
			return
		}
		form.Quantity = n
	}
	if err := s.validate.Struct(form); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid order")
		return
	}

	order := Order{
		ID:        uuid.NewString(),
		Item:      form.Item,
		Quantity:  form.Quantity,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.orders = append(s.orders, order)
	s.mu.Unlock()
	s.logger.Info("order created", "id", order.ID, "item", order.Item, "quantity", order.Quantity)

	http.Redirect(w, r, "/orders/"+order.ID+"/", http.StatusSeeOther)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
