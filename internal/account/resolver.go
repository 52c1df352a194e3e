// Package account resolves a LINE user to the app-side account that
// references it.
package account

import (
	"context"
	"errors"

	"github.com/garyellow/medreminder-linebot-go/internal/config"
	domerrors "github.com/garyellow/medreminder-linebot-go/internal/errors"
	"github.com/garyellow/medreminder-linebot-go/internal/metrics"
	"github.com/garyellow/medreminder-linebot-go/internal/storage"
	"golang.org/x/sync/singleflight"
)

// Resolver looks accounts up by their LINE user reference. It does not read
// bindings: the app side links accounts on its own schedule, so the two can
// disagree and the account record is authoritative.
type Resolver struct {
	repo    storage.AccountRepository
	metrics *metrics.Metrics
	group   singleflight.Group
}

// NewResolver creates a resolver. metrics may be nil.
func NewResolver(repo storage.AccountRepository, m *metrics.Metrics) *Resolver {
	return &Resolver{repo: repo, metrics: m}
}

// Lookup returns the full account. Concurrent lookups for the same LINE
// user share one store call. The shared call does not inherit any caller's
// cancellation; each caller stops waiting when its own ctx is done.
//
// Errors: domerrors.ErrAccountNotFound before the user connects in the app;
// errors matching domerrors.ErrStoreUnavailable when the store fails;
// ctx.Err() when the caller gives up first.
func (r *Resolver) Lookup(ctx context.Context, lineUserID string) (*storage.Account, error) {
	if lineUserID == "" {
		return nil, domerrors.ErrAccountNotFound
	}

	ch := r.group.DoChan(lineUserID, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.AccountLookup)
		defer cancel()
		return r.repo.FindAccountByLineUserID(lookupCtx, lineUserID)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if res.Shared && r.metrics != nil {
		r.metrics.RecordSingleflightDedup("account")
	}
	if errors.Is(res.Err, storage.ErrNotFound) {
		return nil, domerrors.ErrAccountNotFound
	}
	if res.Err != nil {
		return nil, res.Err
	}

	// Callers may mutate their copy.
	acct := *res.Val.(*storage.Account)
	return &acct, nil
}

// Resolve returns only the account ID.
func (r *Resolver) Resolve(ctx context.Context, lineUserID string) (string, error) {
	acct, err := r.Lookup(ctx, lineUserID)
	if err != nil {
		return "", err
	}
	return acct.ID, nil
}
