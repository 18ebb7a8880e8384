package dto

// RegisterRequest alta de un negocio junto con su administrador (queda pendiente de aprobación).
type RegisterRequest struct {
	BusinessName string `json:"business_name" validate:"required,min=2,max=200"`
	TaxID        string `json:"tax_id" validate:"omitempty,max=50"`
	Phone        string `json:"phone" validate:"omitempty,max=50"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	Name         string `json:"name" validate:"omitempty,max=200"`
}

// RegisterResponse negocio y administrador creados.
type RegisterResponse struct {
	Business BusinessResponse `json:"business"`
	User     UserResponse     `json:"user"`
}

// LoginRequest credenciales.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse token JWT y usuario.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// MeResponse usuario autenticado y el contexto resuelto para la petición.
type MeResponse struct {
	User       UserResponse `json:"user"`
	BusinessID string       `json:"business_id,omitempty"`
	BranchID   string       `json:"branch_id,omitempty"`
}
