package dto

// UpsertPermissionRequest concede (true) o deniega (false) un módulo a un usuario.
type UpsertPermissionRequest struct {
	Granted *bool `json:"granted" validate:"required"`
}

// ModulePermissionResponse decisión efectiva sobre un módulo.
type ModulePermissionResponse struct {
	Module  string `json:"module"`
	Allowed bool   `json:"allowed"`
	Source  string `json:"source"` // role | override
}

// EffectivePermissionsResponse permisos efectivos de un usuario.
type EffectivePermissionsResponse struct {
	UserID  string                     `json:"user_id"`
	Role    string                     `json:"role"`
	Modules []ModulePermissionResponse `json:"modules"`
}
