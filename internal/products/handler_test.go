package products

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/warden-rbac/warden/internal/authz"
	"github.com/warden-rbac/warden/internal/shared"
)

const (
	adminRoleID = 1
	userRoleID  = 2

	productsElementID = 10
)

type authzStub struct {
	rolesByUser map[int64][]int64
	rulesByRole map[int64]authz.Rule
}

func (s authzStub) RolesOf(_ context.Context, userID int64) ([]int64, error) {
	return s.rolesByUser[userID], nil
}

func (s authzStub) FindByName(_ context.Context, name string) (authz.Element, error) {
	if name != ElementName {
		return authz.Element{}, shared.ErrNotFound
	}
	return authz.Element{ID: productsElementID, Name: name}, nil
}

func (s authzStub) RulesFor(_ context.Context, roleIDs []int64, elementID int64) ([]authz.Rule, error) {
	var out []authz.Rule
	for _, roleID := range roleIDs {
		if rule, ok := s.rulesByRole[roleID]; ok && rule.ElementID == elementID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func newProductsFixture(t *testing.T) (*Store, chi.Router) {
	t.Helper()
	stub := authzStub{
		rolesByUser: map[int64][]int64{
			100: {adminRoleID},
			200: {userRoleID},
			300: {},
		},
		rulesByRole: map[int64]authz.Rule{
			adminRoleID: {RoleID: adminRoleID, ElementID: productsElementID, Grants: authz.Grants{
				ReadAll: true, Create: true, UpdateAll: true, DeleteAll: true,
			}},
			userRoleID: {RoleID: userRoleID, ElementID: productsElementID, Grants: authz.Grants{
				ReadOwn: true, Create: true, UpdateOwn: true, DeleteOwn: true,
			}},
		},
	}
	evaluator := authz.NewEvaluator(stub, stub, stub)

	store := NewStore([]Product{
		{ID: 1, Name: "Laptop", Owner: 100},
		{ID: 2, Name: "Keyboard", Owner: 200},
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, store, evaluator)

	r := chi.NewRouter()
	r.Route("/products", handler.MountRoutes)
	return store, r
}

func do(router chi.Router, method, path, body string, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		ctx := shared.ContextWithIdentity(req.Context(), &shared.Identity{ID: userID})
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListRequiresAuthentication(t *testing.T) {
	_, router := newProductsFixture(t)
	require.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/products/", "", 0).Code)
}

func TestListDeniedWithoutAnyReadGrant(t *testing.T) {
	_, router := newProductsFixture(t)
	require.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/products/", "", 300).Code)
}

func TestListFiltersToOwnedItems(t *testing.T) {
	_, router := newProductsFixture(t)

	rec := do(router, http.MethodGet, "/products/", "", 200)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, int64(2), listed[0].ID)
}

func TestListAdminSeesEverything(t *testing.T) {
	_, router := newProductsFixture(t)

	rec := do(router, http.MethodGet, "/products/", "", 100)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
}

func TestCreateAssignsCallerAsOwner(t *testing.T) {
	store, router := newProductsFixture(t)

	rec := do(router, http.MethodPost, "/products/", `{"name":"Mouse"}`, 200)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, int64(200), created.Owner)

	stored, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Mouse", stored.Name)
}

func TestCreateDeniedWithoutGrant(t *testing.T) {
	_, router := newProductsFixture(t)
	require.Equal(t, http.StatusForbidden, do(router, http.MethodPost, "/products/", `{"name":"Mouse"}`, 300).Code)
}

func TestUpdateOwnScope(t *testing.T) {
	_, router := newProductsFixture(t)

	// User 200 owns product 2 but not product 1.
	require.Equal(t, http.StatusOK, do(router, http.MethodPut, "/products/2", `{"name":"Trackball"}`, 200).Code)
	require.Equal(t, http.StatusForbidden, do(router, http.MethodPut, "/products/1", `{"name":"Trackball"}`, 200).Code)
}

func TestUpdateAllScopeIgnoresOwnership(t *testing.T) {
	_, router := newProductsFixture(t)
	require.Equal(t, http.StatusOK, do(router, http.MethodPut, "/products/2", `{"name":"Renamed"}`, 100).Code)
}

func TestAnonymousMutationIs401EvenForMissingProduct(t *testing.T) {
	_, router := newProductsFixture(t)

	// Authentication is checked before existence, so anonymous probes cannot
	// tell real IDs from missing ones.
	require.Equal(t, http.StatusUnauthorized, do(router, http.MethodPut, "/products/999", `{"name":"x"}`, 0).Code)
	require.Equal(t, http.StatusUnauthorized, do(router, http.MethodDelete, "/products/2", "", 0).Code)
}

func TestUpdateMissingProductIs404(t *testing.T) {
	_, router := newProductsFixture(t)
	require.Equal(t, http.StatusNotFound, do(router, http.MethodPut, "/products/999", `{"name":"x"}`, 100).Code)
}

func TestDeleteScopes(t *testing.T) {
	store, router := newProductsFixture(t)

	require.Equal(t, http.StatusForbidden, do(router, http.MethodDelete, "/products/1", "", 200).Code)
	require.Equal(t, http.StatusOK, do(router, http.MethodDelete, "/products/2", "", 200).Code)

	_, err := store.Get(context.Background(), 2)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
