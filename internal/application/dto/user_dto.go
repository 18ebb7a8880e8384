package dto

import "time"

// CreateUserRequest alta de un usuario dentro del negocio del administrador.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin manager staff"`
}

// ChangeRoleRequest cambio de rol.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager staff"`
}

// SetActiveRequest activa o desactiva una cuenta.
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID             string     `json:"id"`
	BusinessID     string     `json:"business_id,omitempty"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           string     `json:"role"`
	IsActive       bool       `json:"is_active"`
	ApprovalStatus string     `json:"approval_status"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// UserListResponse listado paginado de usuarios.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
