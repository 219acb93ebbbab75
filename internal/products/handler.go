package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warden-rbac/warden/internal/authz"
	"github.com/warden-rbac/warden/internal/platform/httpx"
	"github.com/warden-rbac/warden/internal/shared"
)

// Handler wires the product endpoints through the permission evaluator.
type Handler struct {
	logger    *slog.Logger
	store     *Store
	evaluator *authz.Evaluator
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, store *Store, evaluator *authz.Evaluator) *Handler {
	return &Handler{
		logger:    logger,
		store:     store,
		evaluator: evaluator,
		validator: validator.New(),
	}
}

// MountRoutes registers product routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Put("/{productID}", h.handleUpdate)
	r.Delete("/{productID}", h.handleDelete)
}

type productRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	// Coarse gate first: without any read grant the whole listing fails
	// with a denial rather than an empty list.
	if err := h.evaluator.CanListAny(r.Context(), identity, ElementName); err != nil {
		httpx.RespondError(w, err)
		return
	}
	visible, err := authz.FilterReadable(r.Context(), h.evaluator, identity, ElementName, h.store.List(r.Context()))
	if err != nil {
		h.logger.Error("filter products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, visible)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if err := h.evaluator.Evaluate(r.Context(), identity, ElementName, authz.ActionCreate, nil); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	product := h.store.Create(r.Context(), req.Name, identity.ID)
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, authz.ErrAuthenticationRequired)
		return
	}
	product, ok := h.lookup(w, r)
	if !ok {
		return
	}
	owner := product.Owner
	if err := h.evaluator.Evaluate(r.Context(), identity, ElementName, authz.ActionUpdate, &owner); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.store.Update(r.Context(), product.ID, req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, authz.ErrAuthenticationRequired)
		return
	}
	product, ok := h.lookup(w, r)
	if !ok {
		return
	}
	owner := product.Owner
	if err := h.evaluator.Evaluate(r.Context(), identity, ElementName, authz.ActionDelete, &owner); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.store.Delete(r.Context(), product.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// lookup resolves the path ID to a product. An absent instance is a 404
// before any permission check runs.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (Product, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return Product{}, false
	}
	product, err := h.store.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return Product{}, false
	}
	return product, true
}
