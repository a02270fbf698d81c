package model

import "time"

type UserRole string

const (
	UserRoleFarmer UserRole = "farmer"
	UserRoleOwner  UserRole = "owner"
	UserRoleAdmin  UserRole = "admin"
)

type User struct {
	ID         int64     `json:"id"`
	Role       UserRole  `json:"role"`
	Name       string    `json:"name"`
	TelegramID *int64    `json:"telegram_id"` // указатель - может быть nil
	CreatedAt  time.Time `json:"created_at"`
}
