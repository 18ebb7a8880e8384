package entity

import (
	"fmt"
	"strings"
	"time"
)

// Role rol fijo de un usuario. Se persiste como texto validado, nunca como enum nativo de la BD.
type Role string

// Roles válidos para User.
const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleStaff      Role = "staff"
)

// ParseRole traduce el valor almacenado (sin importar mayúsculas) a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSuperadmin, RoleAdmin, RoleManager, RoleStaff:
		return r, nil
	default:
		return "", fmt.Errorf("rol desconocido %q", s)
	}
}

// ApprovalStatus estado de aprobación de la cuenta.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ParseApprovalStatus traduce el valor almacenado a ApprovalStatus.
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	switch a := ApprovalStatus(strings.ToLower(strings.TrimSpace(s))); a {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return a, nil
	default:
		return "", fmt.Errorf("estado de aprobación desconocido %q", s)
	}
}

// User representa un principal del sistema. BusinessID vacío solo es válido para superadmin.
type User struct {
	ID             string
	BusinessID     string
	Email          string
	PasswordHash   string // bcrypt hash, nunca plano en dominio después de persistir
	Name           string
	Role           Role
	IsActive       bool
	ApprovalStatus ApprovalStatus
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsSuperadmin informa si el usuario es administrador de plataforma.
func (u *User) IsSuperadmin() bool { return u.Role == RoleSuperadmin }

// IsApproved informa si la cuenta fue aprobada.
func (u *User) IsApproved() bool { return u.ApprovalStatus == ApprovalApproved }

// IsLocked informa si el bloqueo por intentos fallidos sigue vigente en now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// RegisterFailedLogin incrementa el contador y bloquea la cuenta al llegar a maxAttempts.
func (u *User) RegisterFailedLogin(now time.Time, maxAttempts int, lockFor time.Duration) {
	u.FailedAttempts++
	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		until := now.Add(lockFor)
		u.LockedUntil = &until
		u.FailedAttempts = 0
	}
	u.UpdatedAt = now
}

// RegisterSuccessfulLogin limpia el estado de bloqueo.
func (u *User) RegisterSuccessfulLogin(now time.Time) {
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// Validate comprueba las invariantes de asociación al negocio.
func (u *User) Validate() error {
	if u.Role != RoleSuperadmin && u.BusinessID == "" {
		return fmt.Errorf("el usuario %s con rol %s requiere negocio", u.ID, u.Role)
	}
	return nil
}
