package entity

import (
	"fmt"
	"strings"
	"time"
)

// AuditAction tipo de acción registrada en la bitácora.
type AuditAction string

const (
	AuditLogin            AuditAction = "login"
	AuditLogout           AuditAction = "logout"
	AuditCreate           AuditAction = "create"
	AuditRead             AuditAction = "read"
	AuditUpdate           AuditAction = "update"
	AuditDelete           AuditAction = "delete"
	AuditApprove          AuditAction = "approve"
	AuditReject           AuditAction = "reject"
	AuditPermissionChange AuditAction = "permission_change"
	AuditSettingsUpdate   AuditAction = "settings_update"
	AuditFileUpload       AuditAction = "file_upload"
	AuditFileDownload     AuditAction = "file_download"
	AuditImpersonate      AuditAction = "impersonate"
)

// ParseAuditAction valida una acción de la taxonomía.
func ParseAuditAction(s string) (AuditAction, error) {
	switch a := AuditAction(strings.ToLower(strings.TrimSpace(s))); a {
	case AuditLogin, AuditLogout, AuditCreate, AuditRead, AuditUpdate, AuditDelete, AuditApprove,
		AuditReject, AuditPermissionChange, AuditSettingsUpdate, AuditFileUpload, AuditFileDownload,
		AuditImpersonate:
		return a, nil
	default:
		return "", fmt.Errorf("acción de auditoría desconocida %q", s)
	}
}

// AuditEntry registro inmutable de una acción. Solo se inserta; nunca se actualiza ni borra.
type AuditEntry struct {
	ID         string
	ActorID    string
	BusinessID string
	BranchID   string
	Action     AuditAction
	EntityType string
	EntityID   string
	OldValues  map[string]any
	NewValues  map[string]any
	IPAddress  string
	UserAgent  string
	RequestID  string
	CreatedAt  time.Time
}
