package models

import "time"

type Role string

const (
	RoleJobSeeker Role = "job_seeker"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleJobSeeker, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// SelfAssignable reports whether a role can be picked at sign-up
func (r Role) SelfAssignable() bool {
	return r == RoleJobSeeker || r == RoleEmployer
}

type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	FullName       string    `db:"full_name" json:"full_name"`
	Role           Role      `db:"role" json:"role"`
	TelegramChatID *int64    `db:"telegram_chat_id" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
