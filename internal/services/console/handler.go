package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"hotel-backoffice/internal/builder"
	"hotel-backoffice/internal/fulfillment"
	"hotel-backoffice/internal/logger"
	"hotel-backoffice/internal/models"
	"hotel-backoffice/internal/status"
)

// Handler exposes the console service over HTTP.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new console handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// Routes builds the console router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(h.withLogging)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog/items", h.ListCatalogItems)
		r.Get("/catalog/categories", h.ListCategories)
		r.Post("/catalog/refresh", h.RefreshCatalog)

		r.Post("/drafts", h.OpenDraft)
		r.Get("/drafts/{draftID}", h.GetDraft)
		r.Delete("/drafts/{draftID}", h.CancelDraft)
		r.Post("/drafts/{draftID}/items", h.AddLine)
		r.Delete("/drafts/{draftID}/items/{index}", h.RemoveLine)
		r.Post("/drafts/{draftID}/commit", h.CommitDraft)

		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{orderID}", h.GetOrder)
		r.Patch("/orders/{orderID}/status", h.TransitionOrder)
		r.Delete("/orders/{orderID}", h.DeleteOrder)
		r.Get("/orders/{orderID}/history", h.GetStatusHistory)

		r.Get("/commits/failed", h.ListFailedCommits)
	})

	return r
}

// ListCatalogItems handles GET /api/catalog/items?category=&q= requests.
func (h *Handler) ListCatalogItems(w http.ResponseWriter, r *http.Request) {
	category := models.Category(r.URL.Query().Get("category"))
	searchText := r.URL.Query().Get("q")

	items := h.service.Catalog(category, searchText)
	if items == nil {
		items = []models.CatalogItem{}
	}

	h.writeJSON(w, http.StatusOK, items)
}

// ListCategories handles GET /api/catalog/categories requests.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.service.Categories()
	if categories == nil {
		categories = []models.Category{}
	}
	h.writeJSON(w, http.StatusOK, categories)
}

// RefreshCatalog handles POST /api/catalog/refresh requests.
func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	if err := h.service.RefreshCatalog(r.Context()); err != nil {
		h.logger.Error("catalog_refresh_failed", "Failed to refresh catalog", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadGateway, "Failed to refresh catalog from backend", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "refreshed",
		"item_count": h.service.index.Len(),
	})
}

// OpenDraft handles POST /api/drafts requests.
func (h *Handler) OpenDraft(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	var guest models.GuestContext
	if err := h.decodeBody(r, &guest); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	draftID, err := h.service.OpenDraft(guest, requestID)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{"draft_id": draftID})
}

// GetDraft handles GET /api/drafts/{draftID} requests.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	view, err := h.service.Draft(chi.URLParam(r, "draftID"))
	if err != nil {
		h.writeErrorResponse(w, http.StatusNotFound, "Draft not found", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// CancelDraft handles DELETE /api/drafts/{draftID} requests.
func (h *Handler) CancelDraft(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	h.service.CancelDraft(chi.URLParam(r, "draftID"), requestID)
	w.WriteHeader(http.StatusNoContent)
}

type addLineRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

// AddLine handles POST /api/drafts/{draftID}/items requests.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())
	draftID := chi.URLParam(r, "draftID")

	var req addLineRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	view, err := h.service.AddLine(draftID, req.ItemID, req.Quantity, req.Notes, requestID)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// RemoveLine handles DELETE /api/drafts/{draftID}/items/{index} requests.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())
	draftID := chi.URLParam(r, "draftID")

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid line index", requestID)
		return
	}

	view, err := h.service.RemoveLine(draftID, index, requestID)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// CommitDraft handles POST /api/drafts/{draftID}/commit requests.
func (h *Handler) CommitDraft(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())
	draftID := chi.URLParam(r, "draftID")

	result, err := h.service.CommitDraft(r.Context(), draftID, requestID)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}

	// Partial commits still return the full report with 200: the commit
	// happened, the report says how much of it stuck.
	h.writeJSON(w, http.StatusOK, newCommitResponse(result))
}

type transitionRequest struct {
	Status    string `json:"status"`
	ChangedBy string `json:"changed_by"`
	Notes     string `json:"notes"`
}

// TransitionOrder handles PATCH /api/orders/{orderID}/status requests.
func (h *Handler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())
	orderID := chi.URLParam(r, "orderID")

	var req transitionRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	newStatus, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	order, err := h.service.TransitionOrder(r.Context(), orderID, newStatus, req.ChangedBy, req.Notes, requestID)
	if err != nil {
		if errors.Is(err, status.ErrInvalidTransition) {
			h.writeErrorResponse(w, http.StatusConflict, err.Error(), requestID)
			return
		}
		h.logger.Error("status_update_failed", "Failed to transition order", requestID, err, map[string]interface{}{
			"order_id": orderID,
		})
		h.writeErrorResponse(w, http.StatusBadGateway, "Failed to update order status", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

// GetOrder handles GET /api/orders/{orderID} requests.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())
	orderID := chi.URLParam(r, "orderID")

	order, err := h.service.Order(r.Context(), orderID)
	if err != nil {
		h.writeErrorResponse(w, http.StatusNotFound, "Order not found", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

// ListOrders handles GET /api/orders?status=&room= requests.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	var st models.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseOrderStatus(raw)
		if err != nil {
			h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
			return
		}
		st = parsed
	}

	orders, err := h.service.Orders(r.Context(), st, r.URL.Query().Get("room"))
	if err != nil {
		h.logger.Error("order_list_failed", "Failed to list orders", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadGateway, "Failed to list orders", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

// DeleteOrder handles DELETE /api/orders/{orderID} requests.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())
	orderID := chi.URLParam(r, "orderID")

	if err := h.service.RemoveOrder(r.Context(), orderID, requestID); err != nil {
		h.logger.Error("order_delete_failed", "Failed to delete order", requestID, err, map[string]interface{}{
			"order_id": orderID,
		})
		h.writeErrorResponse(w, http.StatusBadGateway, "Failed to delete order", requestID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStatusHistory handles GET /api/orders/{orderID}/history requests.
func (h *Handler) GetStatusHistory(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	history, err := h.service.StatusHistory(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.logger.Error("db_query_failed", "Failed to get status history", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

// ListFailedCommits handles GET /api/commits/failed?limit= requests.
func (h *Handler) ListFailedCommits(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	commits, err := h.service.FailedCommits(r.Context(), limit)
	if err != nil {
		h.logger.Error("db_query_failed", "Failed to list failed commits", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, commits)
}

// HealthCheck handles GET /health requests.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "console-service",
	})
}

// commitResponse is the wire shape of a commit report.
type commitResponse struct {
	Status      string                  `json:"status"`
	OrderNumber string                  `json:"order_number"`
	Breakdown   models.PricingBreakdown `json:"breakdown"`
	Deductions  []deductionResponse     `json:"deductions"`
	Groups      []groupResponse         `json:"groups"`
	CommittedAt time.Time               `json:"committed_at"`
}

type deductionResponse struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
	Error    string `json:"error,omitempty"`
}

type groupResponse struct {
	Category     string `json:"category"`
	Destination  string `json:"destination"`
	DownstreamID string `json:"downstream_id,omitempty"`
	Subtotal     string `json:"subtotal"`
	Error        string `json:"error,omitempty"`
}

func newCommitResponse(result *fulfillment.Result) commitResponse {
	resp := commitResponse{
		Status:      string(result.Status),
		OrderNumber: result.OrderNumber,
		Breakdown:   result.Breakdown,
		Deductions:  []deductionResponse{},
		Groups:      []groupResponse{},
		CommittedAt: result.CommittedAt,
	}
	for _, d := range result.Deductions {
		dr := deductionResponse{ItemID: d.ItemID, ItemName: d.ItemName, Quantity: d.Quantity}
		if d.Err != nil {
			dr.Error = d.Err.Error()
		}
		resp.Deductions = append(resp.Deductions, dr)
	}
	for _, g := range result.Groups {
		gr := groupResponse{
			Category:     string(g.Category),
			Destination:  g.Destination,
			DownstreamID: g.DownstreamID,
			Subtotal:     g.Subtotal.StringFixed(2),
		}
		if g.Err != nil {
			gr.Error = g.Err.Error()
		}
		resp.Groups = append(resp.Groups, gr)
	}
	return resp
}

// decodeBody parses a JSON request body, rejecting unknown fields.
func (h *Handler) decodeBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// writeServiceError maps domain errors to HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, ErrDraftNotFound):
		h.writeErrorResponse(w, http.StatusNotFound, "Draft not found", requestID)
	case errors.Is(err, ErrItemNotFound):
		h.writeErrorResponse(w, http.StatusNotFound, err.Error(), requestID)
	case errors.Is(err, builder.ErrInsufficientStock),
		errors.Is(err, builder.ErrInvalidQuantity),
		errors.Is(err, builder.ErrIndexOutOfRange):
		h.writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), requestID)
	case errors.Is(err, fulfillment.ErrEmptyOrder):
		h.writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), requestID)
	default:
		h.logger.Error("request_failed", "Unhandled service error", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
	}
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}

// writeErrorResponse writes an error response in JSON format.
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	}

	json.NewEncoder(w).Encode(errorResponse)
}

// withLogging generates a request correlation ID and logs request
// start and completion.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
				"user_agent":  r.Header.Get("User-Agent"),
			})

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": duration.Milliseconds(),
			})
	})
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
