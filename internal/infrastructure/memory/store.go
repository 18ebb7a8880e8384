// Package memory implementa los puertos de persistencia en memoria.
// Se usa en tests y en desarrollo local sin PostgreSQL.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

type accessKey struct{ userID, branchID string }

type overrideKey struct{ userID, module string }

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users      map[string]*entity.User
	businesses map[string]*entity.Business
	branches   map[string]*entity.Branch
	access     map[accessKey]*entity.BranchAccess
	plans      map[string]*entity.Plan
	subs       map[string]*entity.Subscription
	overrides  map[overrideKey]*entity.PermissionOverride
	audit      []*entity.AuditEntry
	// usage de recursos sin tabla propia en este servicio (productos, órdenes) por negocio.
	usage map[string]map[entity.Resource]int
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		users:      map[string]*entity.User{},
		businesses: map[string]*entity.Business{},
		branches:   map[string]*entity.Branch{},
		access:     map[accessKey]*entity.BranchAccess{},
		plans:      map[string]*entity.Plan{},
		subs:       map[string]*entity.Subscription{},
		overrides:  map[overrideKey]*entity.PermissionOverride{},
		usage:      map[string]map[entity.Resource]int{},
	}
}

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Businesses repositorio de negocios.
func (s *Store) Businesses() *BusinessRepo { return &BusinessRepo{s: s} }

// Branches repositorio de sucursales.
func (s *Store) Branches() *BranchRepo { return &BranchRepo{s: s} }

// BranchAccess repositorio de concesiones de sucursal.
func (s *Store) BranchAccess() *BranchAccessRepo { return &BranchAccessRepo{s: s} }

// Plans repositorio del catálogo de planes.
func (s *Store) Plans() *PlanRepo { return &PlanRepo{s: s} }

// Subscriptions repositorio de suscripciones.
func (s *Store) Subscriptions() *SubscriptionRepo { return &SubscriptionRepo{s: s} }

// Permissions repositorio de overrides de permisos.
func (s *Store) Permissions() *PermissionRepo { return &PermissionRepo{s: s} }

// Audit bitácora.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{s: s} }

// Usage contador de uso de recursos.
func (s *Store) Usage() *UsageCounter { return &UsageCounter{s: s} }

// TxRunner runner transaccional sobre el store.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner serializa las transacciones y deshace los cambios si fn devuelve error.
// Las lecturas fuera de una transacción pueden ver cambios aún no confirmados.
type TxRunner struct {
	s *Store
}

// Run ejecuta fn con los repositorios del store; si fn falla o el contexto terminó restaura el estado previo.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.TxRepositories) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	snap := r.s.snapshot()
	err := fn(repository.TxRepositories{
		Users:         r.s.Users(),
		Businesses:    r.s.Businesses(),
		Branches:      r.s.Branches(),
		BranchAccess:  r.s.BranchAccess(),
		Permissions:   r.s.Permissions(),
		Subscriptions: r.s.Subscriptions(),
	})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	users      map[string]*entity.User
	businesses map[string]*entity.Business
	branches   map[string]*entity.Branch
	access     map[accessKey]*entity.BranchAccess
	subs       map[string]*entity.Subscription
	overrides  map[overrideKey]*entity.PermissionOverride
}

// Los valores guardados nunca se modifican en sitio, basta con copiar los mapas.
func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		users:      cloneMap(s.users),
		businesses: cloneMap(s.businesses),
		branches:   cloneMap(s.branches),
		access:     cloneMap(s.access),
		subs:       cloneMap(s.subs),
		overrides:  cloneMap(s.overrides),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.businesses = snap.businesses
	s.branches = snap.branches
	s.access = snap.access
	s.subs = snap.subs
	s.overrides = snap.overrides
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
