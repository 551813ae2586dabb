package handler

import (
	"encoding/json"
	"net/http"

	"circdesk/internal/rules/service"
	httputil "circdesk/pkg/http"
	"circdesk/pkg/logger"
	"circdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type RuleHandler struct {
	service service.RuleService
	log     *logger.Logger
}

func NewRuleHandler(service service.RuleService, log *logger.Logger) *RuleHandler {
	return &RuleHandler{
		service: service,
		log:     log,
	}
}

func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rules, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, rules)
}

func (h *RuleHandler) Put(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var rules []*model.RuleEntry
	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.UpsertAll(r.Context(), rules); err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (h *RuleHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/rules", h.List)
	router.PUT("/api/v1/rules", h.Put)
}
