package authz

import (
	"context"
	"errors"

	"github.com/warden-rbac/warden/internal/shared"
)

var (
	// ErrAuthenticationRequired means no valid identity was presented.
	ErrAuthenticationRequired = errors.New("authz: authentication required")
	// ErrResourceNotConfigured means the referenced business element does not
	// exist. This is a configuration gap, distinct from a denial.
	ErrResourceNotConfigured = errors.New("authz: resource not configured")
	// ErrAccessDenied means the authenticated identity lacks a grant. The
	// error carries no hint about which rule came closest to matching.
	ErrAccessDenied = errors.New("authz: access denied")
)

// RoleSource resolves the set of role IDs held by a user.
type RoleSource interface {
	RolesOf(ctx context.Context, userID int64) ([]int64, error)
}

// ElementSource resolves business elements by name. Unknown names return
// shared.ErrNotFound.
type ElementSource interface {
	FindByName(ctx context.Context, name string) (Element, error)
}

// RuleSource fetches the access rules the given roles hold on an element.
// The uniqueness invariant guarantees at most one rule per role.
type RuleSource interface {
	RulesFor(ctx context.Context, roleIDs []int64, elementID int64) ([]Rule, error)
}

// Evaluator renders allow/deny decisions for (user, element, action) tuples.
// Evaluation is a pure read over shared reference data; any number of calls
// may run concurrently.
type Evaluator struct {
	roles    RoleSource
	elements ElementSource
	rules    RuleSource
	observer func(element string, action Action, err error)
}

// NewEvaluator constructs an Evaluator over the given sources.
func NewEvaluator(roles RoleSource, elements ElementSource, rules RuleSource) *Evaluator {
	return &Evaluator{roles: roles, elements: elements, rules: rules}
}

// Observe registers a callback invoked with the outcome of every decision.
// Used for metrics; a nil callback disables it.
func (e *Evaluator) Observe(fn func(element string, action Action, err error)) {
	e.observer = fn
}

// Evaluate decides whether identity may perform action on the named element.
// ownerID is the owner of the target resource instance, or nil when no
// instance is involved (creation, collection-level checks).
//
// The decision is a logical OR across all of the user's roles: the first
// rule that grants the action allows the call. A user with no roles, or no
// matching rule, gets ErrAccessDenied.
func (e *Evaluator) Evaluate(ctx context.Context, identity *shared.Identity, elementName string, action Action, ownerID *int64) error {
	err := e.evaluate(ctx, identity, elementName, action, ownerID)
	if e.observer != nil {
		e.observer(elementName, action, err)
	}
	return err
}

func (e *Evaluator) evaluate(ctx context.Context, identity *shared.Identity, elementName string, action Action, ownerID *int64) error {
	if identity == nil {
		return ErrAuthenticationRequired
	}
	rules, err := e.rulesFor(ctx, identity, elementName)
	if err != nil {
		return err
	}
	owned := ownerID != nil && *ownerID == identity.ID
	for _, rule := range rules {
		if rule.Allows(action, owned) {
			return nil
		}
	}
	return ErrAccessDenied
}

// CanListAny is the coarse gate for collection reads: it passes when any
// held rule carries a read grant of either scope. When it fails the whole
// listing fails with ErrAccessDenied instead of returning an empty list.
func (e *Evaluator) CanListAny(ctx context.Context, identity *shared.Identity, elementName string) error {
	if identity == nil {
		return ErrAuthenticationRequired
	}
	rules, err := e.rulesFor(ctx, identity, elementName)
	if err != nil {
		return err
	}
	for _, rule := range rules {
		if rule.AllowsAnyRead() {
			return nil
		}
	}
	return ErrAccessDenied
}

func (e *Evaluator) rulesFor(ctx context.Context, identity *shared.Identity, elementName string) ([]Rule, error) {
	element, err := e.elements.FindByName(ctx, elementName)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrResourceNotConfigured
		}
		return nil, err
	}
	roleIDs, err := e.roles.RolesOf(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if len(roleIDs) == 0 {
		return nil, nil
	}
	return e.rules.RulesFor(ctx, roleIDs, element.ID)
}

// Owned describes a resource instance that knows its owner.
type Owned interface {
	OwnerID() int64
}

// FilterReadable evaluates each item independently with that item's owner and
// drops the ones the identity may not read. Exclusion is the intended policy
// for listings; every other error aborts the filter.
func FilterReadable[T Owned](ctx context.Context, e *Evaluator, identity *shared.Identity, elementName string, items []T) ([]T, error) {
	visible := make([]T, 0, len(items))
	for _, item := range items {
		owner := item.OwnerID()
		err := e.Evaluate(ctx, identity, elementName, ActionRead, &owner)
		if err == nil {
			visible = append(visible, item)
			continue
		}
		if errors.Is(err, ErrAccessDenied) {
			continue
		}
		return nil, err
	}
	return visible, nil
}
