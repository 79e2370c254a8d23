package models

// Role — роль действующего лица в системе
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDesigner Role = "designer"
	RoleAdmin    Role = "admin"
)

// Valid проверяет, что роль входит в закрытый перечень
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleDesigner, RoleAdmin:
		return true
	}
	return false
}

// Actor — инициатор операции. Передается явным параметром в бизнес-логику,
// а не через глобальное состояние, чтобы ядро можно было тестировать изолированно.
type Actor struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
