// Package account provides account lifecycle management over an external
// identity store.
//
// The Manager orchestrates multi-step create/update/delete/find/search
// workflows against an accountstore.AccountStore, aggregating sub-step
// outcomes into a single result.Result. Update deliberately continues past a
// failing sub-step and concatenates every failure, so a caller sees all
// problems in one round trip instead of iterating field by field.
//
// # Basic Usage
//
//	store := accountstore.NewInMemoryStore(nil)
//	manager := account.NewManager(store, account.WithRoleStore(store))
//	defer manager.Close()
//
//	res, err := manager.Create(ctx, account.AccountView{
//		Email:    "admin@example.com",
//		Password: "Secret1!",
//		Roles:    []string{"admin"},
//	})
//
// # Invariants
//
// The account's email doubles as its username; every email change is
// mirrored into the username in the same operation. Results are either fully
// succeeded (no errors) or failed with one or more errors; errors recorded by
// earlier sub-steps are never overwritten by later ones.
//
// # Partial failures
//
// The manager provides no cross-call transactions: a failed update can leave
// some fields changed, and a created account whose role assignment failed
// stays in the store (reported with RoleAssignmentIncomplete so only the
// role step needs retrying). Cancellation via ctx stops not-yet-issued store
// calls only; applied sub-steps are not rolled back.
//
// # Roles
//
// Role management is an optional capability. Construct the manager with
// WithRoleStore to enable role assignment, reconciliation and search; without
// it those steps are skipped.
package account
