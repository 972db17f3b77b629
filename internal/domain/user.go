package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID            int64
	StudentNumber string
	FullName      string
	Email         string
	PasswordHash  string
	IDNumber      string
	PhoneNumber   string
	Role          string
	CreatedAt     time.Time
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
