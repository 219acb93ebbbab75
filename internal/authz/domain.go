package authz

// Action identifies an operation on a business element.
type Action string

// Supported actions.
const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether the action is one of the supported four.
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Grants is the fixed-shape permission matrix held by one (role, element)
// pair. The own variants apply only when the acting user owns the target
// resource; the all variants apply unconditionally. Create has no scope
// because no owner exists before creation.
type Grants struct {
	ReadOwn   bool `json:"read_own"`
	ReadAll   bool `json:"read_all"`
	Create    bool `json:"create"`
	UpdateOwn bool `json:"update_own"`
	UpdateAll bool `json:"update_all"`
	DeleteOwn bool `json:"delete_own"`
	DeleteAll bool `json:"delete_all"`
}

// Allows reports whether the matrix grants the action, given whether the
// acting user owns the target resource.
func (g Grants) Allows(action Action, owned bool) bool {
	switch action {
	case ActionRead:
		return g.ReadAll || (g.ReadOwn && owned)
	case ActionCreate:
		return g.Create
	case ActionUpdate:
		return g.UpdateAll || (g.UpdateOwn && owned)
	case ActionDelete:
		return g.DeleteAll || (g.DeleteOwn && owned)
	}
	return false
}

// AllowsAnyRead reports whether any read grant is held, in either scope.
// Listing endpoints use this as the coarse gate before per-item filtering.
func (g Grants) AllowsAnyRead() bool {
	return g.ReadAll || g.ReadOwn
}

// Rule carries the grant matrix for one (role, element) pair. At most one
// rule exists per pair; a user accumulates permissions by holding several
// roles, never by stacking rules on a single role.
type Rule struct {
	RoleID    int64 `json:"role_id"`
	ElementID int64 `json:"element_id"`
	Grants
}

// Element is a named protected resource category, e.g. "products".
type Element struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
