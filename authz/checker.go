package authz

import "context"

// Checker answers whether a subject (a role name here) holds a permission.
type Checker interface {
	HasPermission(subject string, permission string) bool
}

// CheckerFunc is an adapter to use ordinary functions as Checker.
type CheckerFunc func(subject string, permission string) bool

// HasPermission implements Checker.
func (f CheckerFunc) HasPermission(subject string, permission string) bool {
	return f(subject, permission)
}

// MapChecker is an in-memory Checker backed by subject to pattern lists.
type MapChecker struct {
	permissions map[string][]string
}

// NewMapChecker creates a Checker from a static map of subject to
// permission patterns (see MatchPattern).
func NewMapChecker(permissions map[string][]string) *MapChecker {
	return &MapChecker{permissions: permissions}
}

// HasPermission implements Checker.
func (c *MapChecker) HasPermission(subject string, required string) bool {
	patterns, ok := c.permissions[subject]
	if !ok {
		return false
	}
	return MatchAny(patterns, required)
}

// RoleAllower is an ActionAllower that grants an action when any role of
// the caller holds it.
type RoleAllower struct {
	checker Checker
}

// NewRoleAllower wraps a Checker keyed by role name.
func NewRoleAllower(checker Checker) *RoleAllower {
	return &RoleAllower{checker: checker}
}

// Allow implements ActionAllower. Callers without roles are refused.
func (a *RoleAllower) Allow(_ context.Context, req Request) (bool, error) {
	if req.Context == nil {
		return false, nil
	}
	for _, role := range req.Context.Roles {
		if a.checker.HasPermission(role, string(req.Action)) {
			return true, nil
		}
	}
	return false, nil
}
