package entity

import "time"

// Branch representa una sucursal (ubicación física) de un negocio.
type Branch struct {
	ID         string
	BusinessID string
	Name       string
	Address    string
	Phone      string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BranchAccess concede a un usuario acceso a una sucursal.
// Único por (UserID, BranchID); a lo sumo un registro con IsDefault por usuario.
type BranchAccess struct {
	ID        string
	UserID    string
	BranchID  string
	IsDefault bool
	GrantedBy string
	CreatedAt time.Time
}
