package handler

import (
	"net/http"

	"pustaka/internal/members/service"
	"pustaka/pkg/auth"
	httputil "pustaka/pkg/http"
	"pustaka/pkg/logger"
	"pustaka/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type MemberHandler struct {
	service service.MemberService
	log     *logger.Logger
}

func NewMemberHandler(service service.MemberService, log *logger.Logger) *MemberHandler {
	return &MemberHandler{
		service: service,
		log:     log,
	}
}

func (h *MemberHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.Require(r.Context())
	if err != nil {
		h.writeError(w, "Register", err)
		return
	}

	var member model.Member
	if err := httputil.DecodeJSON(r, &member); err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := h.service.Register(r.Context(), caller, &member); err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := httputil.WriteAction(w, http.StatusCreated, "Registration received; awaiting KTP verification", member); err != nil {
		h.log.Error("failed to write action response", "handler", "Register", "operation", "WriteAction", "error", err)
	}
}

func (h *MemberHandler) GetMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.Require(r.Context())
	if err != nil {
		h.writeError(w, "GetMine", err)
		return
	}

	member, err := h.service.GetMine(r.Context(), caller)
	if err != nil {
		h.writeError(w, "GetMine", err)
		return
	}

	if err := httputil.WriteSuccess(w, member); err != nil {
		h.log.Error("failed to write success response", "handler", "GetMine", "operation", "WriteSuccess", "error", err)
	}
}

func (h *MemberHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := auth.RequireAdmin(r.Context())
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	member, err := h.service.GetByID(r.Context(), caller, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, member); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.RequireAdmin(r.Context())
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	status := model.MemberStatus(r.URL.Query().Get("status"))

	members, total, err := h.service.List(r.Context(), caller, status, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, members, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *MemberHandler) Review(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := auth.RequireAdmin(r.Context())
	if err != nil {
		h.writeError(w, "Review", err)
		return
	}

	var decision model.VerificationDecision
	if err := httputil.DecodeJSON(r, &decision); err != nil {
		h.writeError(w, "Review", err)
		return
	}

	member, err := h.service.Review(r.Context(), caller, ps.ByName("id"), &decision)
	if err != nil {
		h.writeError(w, "Review", err)
		return
	}

	message := "Member verified"
	if !decision.Approve {
		message = "Member rejected"
	}
	if err := httputil.WriteAction(w, http.StatusOK, message, member); err != nil {
		h.log.Error("failed to write action response", "handler", "Review", "operation", "WriteAction", "error", err)
	}
}

func (h *MemberHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *MemberHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/members", h.Register)
	router.GET("/api/v1/members/me", h.GetMine)
	router.GET("/api/v1/admin/members", h.List)
	router.GET("/api/v1/admin/members/id/:id", h.GetByID)
	router.POST("/api/v1/admin/members/id/:id/review", h.Review)
}
