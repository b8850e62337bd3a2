package catalog

import (
	"strings"

	"github.com/sbn-software/samsync/internal/shared/errors"
)

// User is a catalog account with its group memberships and grid (certificate)
// subjects. Both collections are unordered.
type User struct {
	Username     string   `json:"username"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	Groups       []string `json:"groups"`
	GridSubjects []string `json:"grid_subjects"`
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return errors.NewValidationError("username is required")
	}
	return nil
}

// UserModification is an additive change to an account. Catalogs accept one
// grid subject per call.
type UserModification struct {
	AddGroups      []string `json:"addgroups,omitempty"`
	AddGridSubject string   `json:"addgridsubject,omitempty"`
}

func (m UserModification) Empty() bool {
	return len(m.AddGroups) == 0 && m.AddGridSubject == ""
}
