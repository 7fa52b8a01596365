// Package handler is the thin HTTP layer over the raffle service. It
// delegates to the service without embedding business logic so transport
// concerns remain isolated.
package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fairdraw/internal/raffle/service"
	id "fairdraw/pkg/domain"
	dErrors "fairdraw/pkg/domain-errors"
	"fairdraw/pkg/platform/httputil"
)

type Handler struct {
	svc *service.Service
	log *slog.Logger
}

func New(svc *service.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register wires the public raffle endpoints. Operator-only routes are
// registered separately via RegisterOperator so the router can guard them.
func (h *Handler) Register(r chi.Router) {
	r.Post("/pools/{poolID}/entries", h.handleEnter)
	r.Get("/pools/{poolID}/results", h.handleResults)
	r.Get("/pools/{poolID}/verify", h.handleVerify)
}

// RegisterOperator wires lifecycle endpoints; mount behind operator auth.
func (h *Handler) RegisterOperator(r chi.Router) {
	r.Post("/pools", h.handleCreatePool)
	r.Post("/pools/{poolID}/close", h.handleClose)
	r.Post("/pools/{poolID}/cancel", h.handleCancel)
	r.Post("/pools/{poolID}/draw", h.handleDraw)
}

func (h *Handler) handleCreatePool(w http.ResponseWriter, r *http.Request) {
	var req createPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	eventID, err := req.validate()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	pool, err := h.svc.CreatePool(r.Context(), eventID, req.TierCents, req.ScheduledDrawTime, req.TicketCount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, pool)
}

func (h *Handler) handleEnter(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req enterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	userID, err := req.validate()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.svc.Enter(r.Context(), service.EnterRequest{
		PoolID: poolID,
		UserID: userID,
		Lat:    req.Lat,
		Lng:    req.Lng,
		IP:     clientIP(r),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"entry_id":              result.Entry.ID,
		"status":                "accepted",
		"payment_client_secret": result.PaymentClientSecret,
	})
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	pool, err := h.svc.ClosePool(r.Context(), poolID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"pool_id":   pool.ID,
		"status":    pool.Status,
		"seed_hash": pool.SeedHash,
		"algorithm": pool.Algorithm,
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	pool, err := h.svc.CancelPool(r.Context(), poolID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"pool_id": pool.ID,
		"status":  pool.Status,
	})
}

func (h *Handler) handleDraw(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.svc.Draw(r.Context(), poolID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"pool_id":     result.Pool.ID,
		"winners":     result.Winners,
		"total_drawn": result.TotalDrawn,
	})
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.svc.Results(r.Context(), poolID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	receipt, err := h.svc.Verify(r.Context(), poolID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

func poolIDParam(r *http.Request) (id.PoolID, error) {
	return id.ParsePoolID(chi.URLParam(r, "poolID"))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
