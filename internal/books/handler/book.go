package handler

import (
	"net/http"

	"pustaka/internal/books/service"
	"pustaka/pkg/auth"
	httputil "pustaka/pkg/http"
	"pustaka/pkg/logger"
	"pustaka/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookHandler struct {
	service service.BookService
	log     *logger.Logger
}

func NewBookHandler(service service.BookService, log *logger.Logger) *BookHandler {
	return &BookHandler{
		service: service,
		log:     log,
	}
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.RequireAdmin(r.Context())
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var book model.Book
	if err := httputil.DecodeJSON(r, &book); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), caller, &book); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, book); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	book, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, book); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	books, total, err := h.service.List(r.Context(), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, books, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookHandler) AdjustStock(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := auth.RequireAdmin(r.Context())
	if err != nil {
		h.writeError(w, "AdjustStock", err)
		return
	}

	var adj model.StockAdjustment
	if err := httputil.DecodeJSON(r, &adj); err != nil {
		h.writeError(w, "AdjustStock", err)
		return
	}

	book, err := h.service.AdjustStock(r.Context(), caller, ps.ByName("id"), &adj)
	if err != nil {
		h.writeError(w, "AdjustStock", err)
		return
	}

	if err := httputil.WriteAction(w, http.StatusOK, "Stock adjusted", book); err != nil {
		h.log.Error("failed to write action response", "handler", "AdjustStock", "operation", "WriteAction", "error", err)
	}
}

func (h *BookHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/books", h.List)
	router.GET("/api/v1/books/id/:id", h.GetByID)
	router.POST("/api/v1/admin/books", h.Create)
	router.POST("/api/v1/admin/books/id/:id/stock", h.AdjustStock)
}
