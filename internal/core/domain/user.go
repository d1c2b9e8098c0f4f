package domain

const (
	RoleLibrarian = "librarian"
)

// Profile is the cached copy of the signed-in librarian as returned by
// GET /users/me. The backend owns the authoritative record.
type Profile struct {
	ID       int64  `json:"id" validate:"required"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Role     string `json:"role"`
}

// Credentials is what the credential store persists between process runs.
// User is nil when only a token was found.
type Credentials struct {
	Token string
	User  *Profile
}

// Clone returns a deep copy, or nil.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
