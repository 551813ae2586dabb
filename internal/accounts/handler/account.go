package handler

import (
	"encoding/json"
	"net/http"

	"circdesk/internal/accounts/service"
	"circdesk/pkg/config"
	httputil "circdesk/pkg/http"
	"circdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AccountHandler struct {
	service service.AccountService
	cfg     *config.Config
}

func NewAccountHandler(service service.AccountService, cfg *config.Config) *AccountHandler {
	return &AccountHandler{
		service: service,
		cfg:     cfg,
	}
}

type paymentRequest struct {
	AmountCents int64               `json:"amount_cents"`
	Method      model.PaymentMethod `json:"method"`
	Note        string              `json:"note"`
}

type waiverRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
}

type assessmentRequest struct {
	AmountCents int64                 `json:"amount_cents"`
	Type        model.TransactionType `json:"type"`
	ItemID      string                `json:"item_id"`
	Note        string                `json:"note"`
}

type ledgerEntryResponse struct {
	Transaction *model.Transaction `json:"transaction"`
	Balance     model.Cents        `json:"balance"`
	Blocked     bool               `json:"blocked"`
}

type patronResponse struct {
	*model.Patron
	Blocked bool `json:"blocked"`
}

type recomputeResponse struct {
	Patron  *model.Patron `json:"patron"`
	Drift   model.Cents   `json:"drift"`
	Blocked bool          `json:"blocked"`
}

func (h *AccountHandler) GetPatron(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	patron, err := h.service.GetPatron(r.Context(), ps.ByName("patronId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, patronResponse{
		Patron:  patron,
		Blocked: patron.Blocked(h.cfg.BlockThreshold),
	})
}

func (h *AccountHandler) RecordPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.requireOperator(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	method := req.Method
	if method == "" {
		method = model.MethodCash
	}

	txn, patron, err := h.service.RecordPayment(r.Context(), ps.ByName("patronId"), model.Cents(req.AmountCents), method, actor, req.Note)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, ledgerEntryResponse{
		Transaction: txn,
		Balance:     patron.Balance,
		Blocked:     patron.Blocked(h.cfg.BlockThreshold),
	})
}

func (h *AccountHandler) Waive(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.requireOperator(w, r)
	if !ok {
		return
	}

	var req waiverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	txn, patron, err := h.service.Waive(r.Context(), ps.ByName("patronId"), model.Cents(req.AmountCents), req.Reason, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, ledgerEntryResponse{
		Transaction: txn,
		Balance:     patron.Balance,
		Blocked:     patron.Blocked(h.cfg.BlockThreshold),
	})
}

func (h *AccountHandler) Assess(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.requireOperator(w, r)
	if !ok {
		return
	}

	var req assessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	txn, patron, err := h.service.AssessManual(r.Context(), ps.ByName("patronId"), model.Cents(req.AmountCents), req.Type, req.ItemID, req.Note, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, ledgerEntryResponse{
		Transaction: txn,
		Balance:     patron.Balance,
		Blocked:     patron.Blocked(h.cfg.BlockThreshold),
	})
}

func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	txns, total, err := h.service.Transactions(r.Context(), ps.ByName("patronId"), int64(limit), offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, txns, total, limit, int(offset))
}

func (h *AccountHandler) Recompute(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, ok := h.requireOperator(w, r); !ok {
		return
	}

	patron, drift, err := h.service.RecomputeBalance(r.Context(), ps.ByName("patronId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, recomputeResponse{
		Patron:  patron,
		Drift:   drift,
		Blocked: patron.Blocked(h.cfg.BlockThreshold),
	})
}

func (h *AccountHandler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, summary)
}

func (h *AccountHandler) requireOperator(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor, err := httputil.ExtractOperator(r)
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return actor, true
}

func (h *AccountHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/accounts/summary", h.Summary)
	router.GET("/api/v1/accounts/id/:patronId", h.GetPatron)
	router.GET("/api/v1/accounts/id/:patronId/transactions", h.Transactions)
	router.POST("/api/v1/accounts/id/:patronId/payments", h.RecordPayment)
	router.POST("/api/v1/accounts/id/:patronId/waivers", h.Waive)
	router.POST("/api/v1/accounts/id/:patronId/assessments", h.Assess)
	router.POST("/api/v1/accounts/id/:patronId/recompute", h.Recompute)
}
