package models

// User представляет пользователя маркетплейса
type User struct {
	ID       int64
	Email    string
	Name     string
	PassHash []byte
	Role     Role
}
