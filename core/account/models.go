package account

import (
	"context"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Teacher
	RoleTeacher = "teacher:"

	// Student
	RoleStudent = "student:"
)

type Profile struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"` // UTC
	LastLogin time.Time `json:"last_login"` // UTC
}

func (p *Profile) RoleStartsWith(prefix string) bool {
	for _, role := range p.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (p *Profile) IsAdmin() bool   { return p.RoleStartsWith(RoleAdmin) }
func (p *Profile) IsTeacher() bool { return p.RoleStartsWith(RoleTeacher) }
func (p *Profile) IsStudent() bool { return p.RoleStartsWith(RoleStudent) }

// UpdateProfile defines what information may be provided to modify the
// logged-in user's profile. Only set fields are sent on PATCH; a password
// change requires its confirmation and passes the local password policy
// before any network call.
type UpdateProfile struct {
	Name            null.String `json:"name"`
	Username        null.String `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           null.String `json:"email" validate:"omitempty,email"`
	Password        string      `json:"password,omitempty" validate:"omitempty"`
	PasswordConfirm string      `json:"password_confirm,omitempty" validate:"required_with=Password,eqfield=Password"`
}

func (up *UpdateProfile) Validate(current Profile) error {
	if up.Name.Valid {
		up.Name.String = core.CleanString(up.Name.String)
	}
	if up.Username.Valid {
		up.Username.String = core.CleanString(up.Username.String, true /* lower */)
	}
	if up.Email.Valid {
		up.Email.String = core.CleanString(up.Email.String, true /* lower */)
	}
	if err := core.Validate.Struct(up); err != nil {
		return err
	}
	if up.Password != "" {
		name := up.Name.String
		if !up.Name.Valid {
			name = current.Name
		}
		uname := up.Username.String
		if !up.Username.Valid {
			uname = current.Username
		}
		email := up.Email.String
		if !up.Email.Valid {
			email = current.Email
		}
		return ValidatePassword(up.Password, name, uname, email)
	}
	return nil
}

// Values returns the set fields as a PATCH body.
func (up UpdateProfile) Values() map[string]interface{} {
	vals := make(map[string]interface{})
	if up.Name.Valid {
		vals["name"] = up.Name.String
	}
	if up.Username.Valid {
		vals["username"] = up.Username.String
	}
	if up.Email.Valid {
		vals["email"] = up.Email.String
	}
	if up.Password != "" {
		vals["password"] = up.Password
		vals["password_confirm"] = up.PasswordConfirm
	}
	return vals
}

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate() error {
	c.Username = core.CleanString(c.Username, true /* lower */)
	return core.Validate.Struct(c)
}

type Repository interface {
	GetProfile(ctx context.Context) (Profile, error)
	UpdateProfile(ctx context.Context, up UpdateProfile) (Profile, error)
}
