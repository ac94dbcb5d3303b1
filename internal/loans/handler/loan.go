package handler

import (
	"net/http"

	"pustaka/internal/loans/service"
	"pustaka/pkg/auth"
	httputil "pustaka/pkg/http"
	"pustaka/pkg/logger"
	"pustaka/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type LoanHandler struct {
	service service.LoanService
	log     *logger.Logger
}

func NewLoanHandler(service service.LoanService, log *logger.Logger) *LoanHandler {
	return &LoanHandler{
		service: service,
		log:     log,
	}
}

func (h *LoanHandler) Borrow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.Require(r.Context())
	if err != nil {
		h.writeError(w, "Borrow", err)
		return
	}

	var req model.BorrowRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Borrow", err)
		return
	}

	loan, err := h.service.Borrow(r.Context(), caller, &req)
	if err != nil {
		h.writeError(w, "Borrow", err)
		return
	}

	if err := httputil.WriteAction(w, http.StatusCreated, "Book borrowed", loan); err != nil {
		h.log.Error("failed to write action response", "handler", "Borrow", "operation", "WriteAction", "error", err)
	}
}

func (h *LoanHandler) Renew(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := auth.Require(r.Context())
	if err != nil {
		h.writeError(w, "Renew", err)
		return
	}

	loan, err := h.service.Renew(r.Context(), caller, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Renew", err)
		return
	}

	if err := httputil.WriteAction(w, http.StatusOK, "Loan renewed", loan); err != nil {
		h.log.Error("failed to write action response", "handler", "Renew", "operation", "WriteAction", "error", err)
	}
}

func (h *LoanHandler) Return(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, confirm, ok := h.confirmedCaller(w, r, "Return")
	if !ok {
		return
	}

	loan, err := h.service.Return(r.Context(), caller, ps.ByName("id"), confirm)
	if err != nil {
		h.writeError(w, "Return", err)
		return
	}

	if err := httputil.WriteAction(w, http.StatusOK, "Book returned", loan); err != nil {
		h.log.Error("failed to write action response", "handler", "Return", "operation", "WriteAction", "error", err)
	}
}

func (h *LoanHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := auth.Require(r.Context())
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	loan, err := h.service.GetByID(r.Context(), caller, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, loan); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LoanHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.Require(r.Context())
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}
	status := model.LoanStatus(r.URL.Query().Get("status"))

	loans, total, err := h.service.ListMine(r.Context(), caller, status, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, loans, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *LoanHandler) ListAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.RequireAdmin(r.Context())
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}
	status := model.LoanStatus(r.URL.Query().Get("status"))

	loans, total, err := h.service.ListAll(r.Context(), caller, status, limit, offset)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	if err := httputil.WritePaginated(w, loans, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *LoanHandler) OverrideBorrow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.RequireAdmin(r.Context())
	if err != nil {
		h.writeError(w, "OverrideBorrow", err)
		return
	}

	var req model.OverrideBorrowRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "OverrideBorrow", err)
		return
	}

	loan, err := h.service.OverrideBorrow(r.Context(), caller, &req)
	if err != nil {
		h.writeError(w, "OverrideBorrow", err)
		return
	}

	if err := httputil.WriteAction(w, http.StatusCreated, "Book borrowed on behalf of member", loan); err != nil {
		h.log.Error("failed to write action response", "handler", "OverrideBorrow", "operation", "WriteAction", "error", err)
	}
}

func (h *LoanHandler) OverrideRenew(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, confirm, ok := h.confirmedCaller(w, r, "OverrideRenew")
	if !ok {
		return
	}

	loan, err := h.service.OverrideRenew(r.Context(), caller, ps.ByName("id"), confirm)
	if err != nil {
		h.writeError(w, "OverrideRenew", err)
		return
	}

	if err := httputil.WriteAction(w, http.StatusOK, "Loan renewed by administrator", loan); err != nil {
		h.log.Error("failed to write action response", "handler", "OverrideRenew", "operation", "WriteAction", "error", err)
	}
}

func (h *LoanHandler) OverrideReturn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, confirm, ok := h.confirmedCaller(w, r, "OverrideReturn")
	if !ok {
		return
	}

	loan, err := h.service.OverrideReturn(r.Context(), caller, ps.ByName("id"), confirm)
	if err != nil {
		h.writeError(w, "OverrideReturn", err)
		return
	}

	if err := httputil.WriteAction(w, http.StatusOK, "Book returned by administrator", loan); err != nil {
		h.log.Error("failed to write action response", "handler", "OverrideReturn", "operation", "WriteAction", "error", err)
	}
}

// confirmedCaller reads the caller and the optional {"confirm": true} body
// shared by the staff-only transitions.
func (h *LoanHandler) confirmedCaller(w http.ResponseWriter, r *http.Request, handler string) (auth.Principal, bool, bool) {
	caller, err := auth.Require(r.Context())
	if err != nil {
		h.writeError(w, handler, err)
		return auth.Principal{}, false, false
	}

	var req model.ConfirmRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, handler, err)
		return auth.Principal{}, false, false
	}
	return caller, req.Confirm, true
}

func (h *LoanHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *LoanHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/loans", h.Borrow)
	router.GET("/api/v1/loans", h.ListMine)
	router.GET("/api/v1/loans/id/:id", h.GetByID)
	router.POST("/api/v1/loans/id/:id/renew", h.Renew)
	router.POST("/api/v1/loans/id/:id/return", h.Return)

	router.GET("/api/v1/admin/loans", h.ListAll)
	router.POST("/api/v1/admin/loans", h.OverrideBorrow)
	router.POST("/api/v1/admin/loans/id/:id/renew", h.OverrideRenew)
	router.POST("/api/v1/admin/loans/id/:id/return", h.OverrideReturn)
}
