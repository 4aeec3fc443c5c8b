package user

import (
	"time"
)

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Name         string     `db:"name"`
	Role         string     `db:"role"`
	Tier         string     `db:"tier"`
	TokenVersion int        `db:"token_version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleSeeker    = "seeker"
	RoleEmployer  = "employer"
	RoleRecruiter = "recruiter"
	RoleAdmin     = "admin"
)

const (
	TierFree    = "free"
	TierPremium = "premium"
)

func ValidRole(role string) bool {
	switch role {
	case RoleSeeker, RoleEmployer, RoleRecruiter, RoleAdmin:
		return true
	}
	return false
}

func (u *User) CanPost() bool {
	return u.Role == RoleEmployer || u.Role == RoleRecruiter ||
		u.Role == RoleAdmin
}
