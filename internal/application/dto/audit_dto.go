package dto

import "time"

// AuditEntryResponse salida de una entrada de bitácora.
type AuditEntryResponse struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id,omitempty"`
	BusinessID string         `json:"business_id,omitempty"`
	BranchID   string         `json:"branch_id,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type,omitempty"`
	EntityID   string         `json:"entity_id,omitempty"`
	OldValues  map[string]any `json:"old_values,omitempty"`
	NewValues  map[string]any `json:"new_values,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditListResponse listado paginado de la bitácora.
type AuditListResponse struct {
	Items []AuditEntryResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// AuditQuery filtros de consulta de la bitácora. Fechas en RFC3339.
type AuditQuery struct {
	ActorID    string `query:"actor_id"`
	Action     string `query:"action"`
	EntityType string `query:"entity_type"`
	From       string `query:"from"`
	To         string `query:"to"`
	Limit      int    `query:"limit" validate:"min=0,max=200"`
	Offset     int    `query:"offset" validate:"min=0"`
}
