package model

import (
	"encoding/json"
	"fmt"
)

// Role is the closed set of account roles. Values outside the set never
// authorize anything.
type Role string

const (
	RoleUser    Role = "USER"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole rejects anything that is not one of the three known roles.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleTeacher, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Identity is what the auth layer knows about the caller. A nil *Identity
// means the request is anonymous.
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// swagger:model User
type User struct {
	UUIDBase
	Name           string          `gorm:"size:100" json:"name"`
	Email          string          `gorm:"size:191;uniqueIndex;not null" json:"email"`
	HashedPassword string          `gorm:"size:100" json:"-"`
	Role           Role            `gorm:"size:16;not null;default:'USER';index" json:"role"`
	TeacherProfile *TeacherProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"teacherProfile,omitempty"`
	Courses        []Course        `gorm:"foreignKey:TeacherID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) Identity() *Identity {
	return &Identity{UserID: u.ID, Role: u.Role}
}
