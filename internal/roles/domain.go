package roles

// Role represents a named permission grouping. Roles are created by
// bootstrap and administrative paths, never through the public API.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Well-known role names seeded at bootstrap. They are seed data only; the
// evaluator never special-cases them.
const (
	NameAdmin = "admin"
	NameUser  = "user"
)
