package repository

import "context"

// TxRepositories repositorios atados a una misma transacción.
type TxRepositories struct {
	Users         UserRepository
	Businesses    BusinessRepository
	Branches      BranchRepository
	BranchAccess  BranchAccessRepository
	Permissions   PermissionOverrideRepository
	Subscriptions SubscriptionRepository
}

// TxRunner ejecuta fn dentro de una transacción: commit si fn devuelve nil, rollback si no.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepositories) error) error
}
