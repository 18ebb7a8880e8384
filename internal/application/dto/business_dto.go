package dto

import "time"

// BusinessResponse salida de un negocio.
type BusinessResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	TaxID          string    `json:"tax_id,omitempty"`
	Address        string    `json:"address,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	IsActive       bool      `json:"is_active"`
	ApprovalStatus string    `json:"approval_status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BusinessListResponse listado paginado de negocios.
type BusinessListResponse struct {
	Items []BusinessResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// UpdateBusinessRequest datos editables del negocio.
type UpdateBusinessRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=200"`
	Address string `json:"address" validate:"omitempty,max=300"`
	Phone   string `json:"phone" validate:"omitempty,max=50"`
	Email   string `json:"email" validate:"omitempty,email,max=255"`
}
