package domain

import "strings"

// UserRole описывает роль вызывающего.
type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

// ParseRole приводит строку к роли. Неизвестные значения становятся member.
func ParseRole(raw string) UserRole {
	switch UserRole(strings.ToLower(strings.TrimSpace(raw))) {
	case UserRoleAdmin:
		return UserRoleAdmin
	default:
		return UserRoleMember
	}
}

// Identity описывает вызывающего, полученного от слоя аутентификации.
type Identity struct {
	UserID int64
	Role   UserRole
}

// IsAdmin сообщает, есть ли у вызывающего права администратора.
func (i Identity) IsAdmin() bool {
	return i.Role == UserRoleAdmin
}
