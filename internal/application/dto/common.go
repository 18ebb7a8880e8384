package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=0,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
// RequiresSubscription distingue "hay que mejorar el plan" de una denegación de permisos.
type ErrorResponse struct {
	Error                string         `json:"error"`
	Code                 string         `json:"code"`
	RequiresSubscription bool           `json:"requires_subscription,omitempty"`
	Details              map[string]any `json:"details,omitempty"`
}
