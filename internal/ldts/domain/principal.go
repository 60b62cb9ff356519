package domain

import "time"

// Canonical userType values driving permission and scope resolution.
const (
	UserTypeAdmin = "Admin"
	UserTypeMD    = "MD"
	UserTypeSD    = "SD"
	UserTypeFC    = "FC"
)

// Secondary role vocabulary kept as profile data. Validated at registration,
// not consulted by the resolvers.
var ValidRoles = []string{"SD", "MD", "CCO", "CCA"}

// Principal is a person who can authenticate: a collection agent or a back
// office user. Organisational identifiers are nullable; they only matter as
// permission and scope fallbacks.
type Principal struct {
	ID                 string
	Firstname          string
	Middlename         string
	Lastname           string
	Suffix             string
	Email              string
	Mobile             string
	UserType           string // Admin, MD, SD, FC; empty when unset
	Role               string // SD, MD, CCO, CCA; empty when unset
	AgentCode          string
	DepartmentID       *int64
	RegionID           *int64
	DivisionID         *int64
	PasswordHash       string // argon2id encoded
	MustChangePassword bool
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Profile is the subset of Principal returned to callers after a successful
// login. It never carries credential state.
type Profile struct {
	ID           string `json:"id"`
	Firstname    string `json:"firstname"`
	Middlename   string `json:"middlename,omitempty"`
	Lastname     string `json:"lastname"`
	Suffix       string `json:"suffix,omitempty"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile,omitempty"`
	UserType     string `json:"userType,omitempty"`
	Role         string `json:"role,omitempty"`
	AgentCode    string `json:"agentCode,omitempty"`
	DepartmentID *int64 `json:"departmentId,omitempty"`
	RegionID     *int64 `json:"regionId,omitempty"`
	DivisionID   *int64 `json:"divisionId,omitempty"`
}

// ProfileOf projects a Principal into its caller-visible Profile.
func ProfileOf(p Principal) Profile {
	return Profile{
		ID:           p.ID,
		Firstname:    p.Firstname,
		Middlename:   p.Middlename,
		Lastname:     p.Lastname,
		Suffix:       p.Suffix,
		Email:        p.Email,
		Mobile:       p.Mobile,
		UserType:     p.UserType,
		Role:         p.Role,
		AgentCode:    p.AgentCode,
		DepartmentID: p.DepartmentID,
		RegionID:     p.RegionID,
		DivisionID:   p.DivisionID,
	}
}
