package entity

import "time"

// PermissionOverride concesión o denegación explícita de un módulo para un usuario.
// Prevalece sobre el valor por defecto del rol.
type PermissionOverride struct {
	ID        string
	UserID    string
	Module    string
	Granted   bool
	GrantedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
