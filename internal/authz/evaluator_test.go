package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/warden-rbac/warden/internal/shared"
)

type memorySources struct {
	elements map[string]Element
	roles    map[int64][]int64
	rules    map[int64][]Rule
}

func (m *memorySources) FindByName(ctx context.Context, name string) (Element, error) {
	el, ok := m.elements[name]
	if !ok {
		return Element{}, shared.ErrNotFound
	}
	return el, nil
}

func (m *memorySources) RolesOf(ctx context.Context, userID int64) ([]int64, error) {
	return m.roles[userID], nil
}

func (m *memorySources) RulesFor(ctx context.Context, roleIDs []int64, elementID int64) ([]Rule, error) {
	var out []Rule
	for _, roleID := range roleIDs {
		for _, rule := range m.rules[roleID] {
			if rule.ElementID == elementID {
				out = append(out, rule)
			}
		}
	}
	return out, nil
}

const (
	roleAdmin int64 = 1
	roleUser  int64 = 2
	roleEmpty int64 = 3
)

// newSeededEvaluator mirrors the bootstrap grant matrix: admin holds all-scope
// grants on products, user holds own-scope grants.
func newSeededEvaluator() (*Evaluator, *memorySources) {
	src := &memorySources{
		elements: map[string]Element{
			"products":     {ID: 10, Name: "products"},
			"access_rules": {ID: 11, Name: "access_rules"},
		},
		roles: map[int64][]int64{
			100: {roleAdmin},
			200: {roleUser},
			300: {},
			400: {roleUser, roleEmpty},
		},
		rules: map[int64][]Rule{
			roleAdmin: {
				{RoleID: roleAdmin, ElementID: 10, Grants: Grants{ReadAll: true, Create: true, UpdateAll: true, DeleteAll: true}},
				{RoleID: roleAdmin, ElementID: 11, Grants: Grants{ReadAll: true, Create: true}},
			},
			roleUser: {
				{RoleID: roleUser, ElementID: 10, Grants: Grants{ReadOwn: true, Create: true, UpdateOwn: true, DeleteOwn: true}},
			},
		},
	}
	return NewEvaluator(src, src, src), src
}

func owner(id int64) *int64 { return &id }

func TestEvaluateRequiresIdentity(t *testing.T) {
	eval, _ := newSeededEvaluator()
	err := eval.Evaluate(context.Background(), nil, "products", ActionRead, nil)
	if !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
}

func TestEvaluateUnknownElement(t *testing.T) {
	eval, _ := newSeededEvaluator()
	user := &shared.Identity{ID: 100}
	err := eval.Evaluate(context.Background(), user, "invoices", ActionRead, nil)
	if !errors.Is(err, ErrResourceNotConfigured) {
		t.Fatalf("expected ErrResourceNotConfigured, got %v", err)
	}
}

func TestEvaluateEmptyRoleSetDeniesEverything(t *testing.T) {
	eval, _ := newSeededEvaluator()
	user := &shared.Identity{ID: 300}
	for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		for _, element := range []string{"products", "access_rules"} {
			err := eval.Evaluate(context.Background(), user, element, action, owner(300))
			if !errors.Is(err, ErrAccessDenied) {
				t.Fatalf("expected ErrAccessDenied for %s/%s, got %v", element, action, err)
			}
		}
	}
}

func TestEvaluateOwnScope(t *testing.T) {
	eval, _ := newSeededEvaluator()
	user := &shared.Identity{ID: 200}

	if err := eval.Evaluate(context.Background(), user, "products", ActionRead, owner(200)); err != nil {
		t.Fatalf("expected own read to be allowed, got %v", err)
	}
	err := eval.Evaluate(context.Background(), user, "products", ActionRead, owner(999))
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected read of another owner to be denied, got %v", err)
	}
	// Own grants never match without an owner to compare against.
	err = eval.Evaluate(context.Background(), user, "products", ActionRead, nil)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ownerless read to be denied, got %v", err)
	}
}

func TestEvaluateAllScopeIgnoresOwnership(t *testing.T) {
	eval, _ := newSeededEvaluator()
	admin := &shared.Identity{ID: 100}
	if err := eval.Evaluate(context.Background(), admin, "products", ActionRead, owner(999)); err != nil {
		t.Fatalf("expected admin read of any owner, got %v", err)
	}
	if err := eval.Evaluate(context.Background(), admin, "products", ActionDelete, nil); err != nil {
		t.Fatalf("expected admin ownerless delete, got %v", err)
	}
}

func TestEvaluateCreateIgnoresOwner(t *testing.T) {
	eval, _ := newSeededEvaluator()
	user := &shared.Identity{ID: 200}
	if err := eval.Evaluate(context.Background(), user, "products", ActionCreate, nil); err != nil {
		t.Fatalf("expected create to be allowed, got %v", err)
	}
}

func TestEvaluateORAcrossRoles(t *testing.T) {
	eval, src := newSeededEvaluator()
	// User 400 holds the user role plus an empty role; the empty role must
	// not mask the grant held through the user role.
	user := &shared.Identity{ID: 400}
	if err := eval.Evaluate(context.Background(), user, "products", ActionUpdate, owner(400)); err != nil {
		t.Fatalf("expected own update through first role, got %v", err)
	}

	// Adding read_all on the otherwise empty role overrides the own-only
	// scope of the other role.
	src.rules[roleEmpty] = []Rule{{RoleID: roleEmpty, ElementID: 10, Grants: Grants{ReadAll: true}}}
	if err := eval.Evaluate(context.Background(), user, "products", ActionRead, owner(999)); err != nil {
		t.Fatalf("expected read_all on second role to win, got %v", err)
	}
}

func TestCanListAny(t *testing.T) {
	eval, _ := newSeededEvaluator()

	if err := eval.CanListAny(context.Background(), &shared.Identity{ID: 200}, "products"); err != nil {
		t.Fatalf("expected read_own to pass coarse check, got %v", err)
	}
	err := eval.CanListAny(context.Background(), &shared.Identity{ID: 200}, "access_rules")
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected coarse check to deny, got %v", err)
	}
	err = eval.CanListAny(context.Background(), nil, "products")
	if !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
	err = eval.CanListAny(context.Background(), &shared.Identity{ID: 200}, "invoices")
	if !errors.Is(err, ErrResourceNotConfigured) {
		t.Fatalf("expected ErrResourceNotConfigured, got %v", err)
	}
}

type ownedItem struct {
	id    int64
	owner int64
}

func (o ownedItem) OwnerID() int64 { return o.owner }

func TestFilterReadableDropsDeniedItems(t *testing.T) {
	eval, _ := newSeededEvaluator()
	items := []ownedItem{
		{id: 1, owner: 200},
		{id: 2, owner: 999},
		{id: 3, owner: 200},
	}

	visible, err := FilterReadable(context.Background(), eval, &shared.Identity{ID: 200}, "products", items)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("expected 2 visible items, got %d", len(visible))
	}
	for _, item := range visible {
		if item.owner != 200 {
			t.Fatalf("unexpected foreign item %d in listing", item.id)
		}
	}

	all, err := FilterReadable(context.Background(), eval, &shared.Identity{ID: 100}, "products", items)
	if err != nil {
		t.Fatalf("filter admin: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected admin to see all items, got %d", len(all))
	}
}

func TestGrantsAllows(t *testing.T) {
	g := Grants{ReadOwn: true, UpdateAll: true}
	if !g.Allows(ActionRead, true) || g.Allows(ActionRead, false) {
		t.Fatalf("read_own must hinge on ownership")
	}
	if !g.Allows(ActionUpdate, false) {
		t.Fatalf("update_all must not hinge on ownership")
	}
	if g.Allows(ActionDelete, true) || g.Allows(ActionCreate, true) {
		t.Fatalf("absent grants must deny")
	}
	if g.Allows(Action("purge"), true) {
		t.Fatalf("unknown action must deny")
	}
}

func TestObserverSeesOutcome(t *testing.T) {
	eval, _ := newSeededEvaluator()
	var gotElement string
	var gotErr error
	eval.Observe(func(element string, action Action, err error) {
		gotElement = element
		gotErr = err
	})
	_ = eval.Evaluate(context.Background(), &shared.Identity{ID: 300}, "products", ActionRead, nil)
	if gotElement != "products" || !errors.Is(gotErr, ErrAccessDenied) {
		t.Fatalf("observer not invoked with decision outcome: %s %v", gotElement, gotErr)
	}
}
