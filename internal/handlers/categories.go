package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/todoapp/apiserver/internal/logging"
	"github.com/todoapp/apiserver/internal/services"
	"github.com/todoapp/apiserver/types"
)

// CategoryHandler provides HTTP handlers for the shared categories. None of
// them require authentication.
type CategoryHandler struct {
	categoryService *services.CategoryService
	logger          logging.Logger
}

func NewCategoryHandler(categoryService *services.CategoryService, logger logging.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// CategoryRouter registers category routes on the given router.
func CategoryRouter(r chi.Router, handler *CategoryHandler) {
	r.Get("/", handler.ListCategories)
	r.Post("/", handler.CreateCategory)
	r.Get("/{categoryID}", handler.GetCategory)
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req types.CategoryCreate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	category, err := h.categoryService.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/categories/"+category.ID)
	writeJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.categoryService.Get(r.Context(), chi.URLParam(r, "categoryID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, category)
}
