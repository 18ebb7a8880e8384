package dto

import "time"

// CreateBranchRequest alta de sucursal.
type CreateBranchRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Address string `json:"address" validate:"omitempty,max=300"`
	Phone   string `json:"phone" validate:"omitempty,max=50"`
}

// BranchResponse salida de una sucursal.
type BranchResponse struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Name       string    `json:"name"`
	Address    string    `json:"address,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BranchListResponse listado paginado de sucursales.
type BranchListResponse struct {
	Items []BranchResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

// GrantBranchAccessRequest concede a un usuario acceso a una sucursal.
type GrantBranchAccessRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	IsDefault bool   `json:"is_default"`
}

// BranchAccessResponse salida de una concesión.
type BranchAccessResponse struct {
	UserID    string    `json:"user_id"`
	BranchID  string    `json:"branch_id"`
	IsDefault bool      `json:"is_default"`
	GrantedBy string    `json:"granted_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
