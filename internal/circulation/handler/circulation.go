package handler

import (
	"encoding/json"
	"net/http"

	"circdesk/internal/circulation/service"
	apperrors "circdesk/pkg/errors"
	httputil "circdesk/pkg/http"
	"circdesk/pkg/logger"
	"circdesk/pkg/sealer"

	"github.com/julienschmidt/httprouter"
)

type CirculationHandler struct {
	service service.CirculationService
	log     *logger.Logger
}

func NewCirculationHandler(service service.CirculationService, log *logger.Logger) *CirculationHandler {
	return &CirculationHandler{
		service: service,
		log:     log,
	}
}

type checkoutRequest struct {
	ItemID   string `json:"item_id"`
	PatronID string `json:"patron_id"`
	// PickupToken is the sealed token from a hold-ready notice. When set it
	// supplies both ids, so scanning the notice is enough to check out.
	PickupToken string `json:"pickup_token"`
}

type returnRequest struct {
	ItemID string `json:"item_id"`
}

type holdRequest struct {
	ItemID   string `json:"item_id"`
	PatronID string `json:"patron_id"`
}

type renewRequest struct {
	ItemID   string `json:"item_id"`
	PatronID string `json:"patron_id"`
}

type lostRequest struct {
	ItemID string `json:"item_id"`
}

func (h *CirculationHandler) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractOperator(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if req.PickupToken != "" {
		itemID, patronID, err := sealer.ParsePickupToken(req.PickupToken)
		if err != nil {
			httputil.WriteError(w, apperrors.InvalidInput("Invalid pickup token"))
			return
		}
		req.ItemID, req.PatronID = itemID, patronID
	}

	loan, err := h.service.Checkout(r.Context(), req.ItemID, req.PatronID, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, loan)
}

func (h *CirculationHandler) Return(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractOperator(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req returnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	result, err := h.service.Return(r.Context(), req.ItemID, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, result)
}

func (h *CirculationHandler) PlaceHold(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, err := httputil.ExtractOperator(r); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req holdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	result, err := h.service.PlaceHold(r.Context(), req.ItemID, req.PatronID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, result)
}

func (h *CirculationHandler) Renew(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractOperator(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req renewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	loan, err := h.service.Renew(r.Context(), req.ItemID, req.PatronID, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, loan)
}

func (h *CirculationHandler) MarkLost(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractOperator(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req lostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	result, err := h.service.MarkLost(r.Context(), req.ItemID, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, result)
}

func (h *CirculationHandler) GetItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	item, err := h.service.GetItem(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, item)
}

func (h *CirculationHandler) GetItemByBarcode(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	item, err := h.service.GetItemByBarcode(r.Context(), ps.ByName("barcode"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, item)
}

func (h *CirculationHandler) ListLoans(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	loans, total, err := h.service.ListLoans(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, loans, total, limit, int(offset))
}

func (h *CirculationHandler) ListOverdueLoans(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	loans, err := h.service.ListOverdueLoans(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, loans)
}

func (h *CirculationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/circulation/checkout", h.Checkout)
	router.POST("/api/v1/circulation/return", h.Return)
	router.POST("/api/v1/circulation/holds", h.PlaceHold)
	router.POST("/api/v1/circulation/renew", h.Renew)
	router.POST("/api/v1/circulation/lost", h.MarkLost)
	router.GET("/api/v1/circulation/items/id/:id", h.GetItem)
	router.GET("/api/v1/circulation/items/barcode/:barcode", h.GetItemByBarcode)
	router.GET("/api/v1/circulation/loans", h.ListLoans)
	router.GET("/api/v1/circulation/loans/overdue", h.ListOverdueLoans)
}
