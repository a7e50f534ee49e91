// Package rbac implements the resource permission model: explicit per-group
// access grants, implicit ownership, and the authorization gate protecting
// every data operation.
//
// # Model
//
// A grant authorizes the members of a user group to access a memo group at
// some level. Levels form a totally ordered integer scale; the evaluator
// combines every applicable grant by taking the maximum (grants are
// permissive and additive). The creator of a resource always holds the
// maximum level over it, whether or not any grant row exists.
//
// # Usage
//
//	store := rbac.NewStore(db)
//	eval := rbac.NewEvaluator(store)
//	gate := rbac.NewGate(eval, metrics)
//
//	if err := gate.RequireMemoGroup(ctx, principal, groupID, rbac.LevelRead); err != nil {
//		// errs.ErrForbidden, errs.ErrNotFound, or a storage failure
//	}
//
// Decisions are never cached; each check reads current grant state.
package rbac
