package rules

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warden-rbac/warden/internal/authz"
	"github.com/warden-rbac/warden/internal/platform/httpx"
	"github.com/warden-rbac/warden/internal/shared"
)

// Handler wires the administrative rule endpoints. The endpoints are gated
// by the evaluator itself, on the access_rules element; bootstrap gives the
// admin role a blanket grant there, which terminates the circle.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	evaluator *authz.Evaluator
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler constructs a Handler. The audit logger may be nil.
func NewHandler(logger *slog.Logger, service *Service, evaluator *authz.Evaluator, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		evaluator: evaluator,
		audit:     audit,
		validator: validator.New(),
	}
}

// MountRoutes registers rule routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleUpsert)
}

type upsertRequest struct {
	RoleID    int64 `json:"role_id" validate:"required,gt=0"`
	ElementID int64 `json:"element_id" validate:"required,gt=0"`
	ReadOwn   bool  `json:"read_own"`
	ReadAll   bool  `json:"read_all"`
	Create    bool  `json:"create"`
	UpdateOwn bool  `json:"update_own"`
	UpdateAll bool  `json:"update_all"`
	DeleteOwn bool  `json:"delete_own"`
	DeleteAll bool  `json:"delete_all"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if err := h.evaluator.Evaluate(r.Context(), identity, ElementName, authz.ActionRead, nil); err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list rules", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []authz.Rule{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	// Read access gates entry to the surface, create access gates the write.
	if err := h.evaluator.Evaluate(r.Context(), identity, ElementName, authz.ActionRead, nil); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.evaluator.Evaluate(r.Context(), identity, ElementName, authz.ActionCreate, nil); err != nil {
		httpx.RespondError(w, err)
		return
	}

	var req upsertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rule, err := h.service.Upsert(r.Context(), req.RoleID, req.ElementID, authz.Grants{
		ReadOwn:   req.ReadOwn,
		ReadAll:   req.ReadAll,
		Create:    req.Create,
		UpdateOwn: req.UpdateOwn,
		UpdateAll: req.UpdateAll,
		DeleteOwn: req.DeleteOwn,
		DeleteAll: req.DeleteAll,
	})
	if err != nil {
		h.logger.Error("upsert rule", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if h.audit != nil {
		if err := h.audit.Record(r.Context(), shared.AuditLog{
			ActorID:  identity.ID,
			Action:   "access_rule.upsert",
			Entity:   ElementName,
			EntityID: fmt.Sprintf("%d:%d", rule.RoleID, rule.ElementID),
			Meta: map[string]any{
				"read_own": rule.ReadOwn, "read_all": rule.ReadAll,
				"create":     rule.Create,
				"update_own": rule.UpdateOwn, "update_all": rule.UpdateAll,
				"delete_own": rule.DeleteOwn, "delete_all": rule.DeleteAll,
			},
		}); err != nil {
			h.logger.Warn("audit rule upsert", slog.Any("error", err))
		}
	}

	httpx.JSON(w, http.StatusCreated, rule)
}
