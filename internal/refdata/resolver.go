package refdata

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fieldcap/internal/logging"
	"fieldcap/internal/services"
)

// RemoteCreator mirrors the remote reference-data endpoints. The resolver
// treats remote failures as advisory; local resolution never blocks on them.
type RemoteCreator interface {
	CreateSupplier(ctx context.Context, orgID, name string) (string, error)
	CreateModel(ctx context.Context, orgID, supplierID, name string) (string, error)
}

// Resolver implements read-through resolution of supplier and model names.
// Lookups hit the local cache first; unknown names are inserted locally with
// a fresh id, then pushed to the remote side on a bounded timeout. A remote
// failure leaves the record local-only and unsynced.
type Resolver struct {
	store         *Store
	remote        RemoteCreator
	remoteTimeout time.Duration
	logger        *slog.Logger
}

// NewResolver constructs a resolver. remote may be nil, which disables the
// sync step entirely.
func NewResolver(store *Store, remote RemoteCreator, remoteTimeout time.Duration, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	if remoteTimeout <= 0 {
		remoteTimeout = 8 * time.Second
	}
	return &Resolver{
		store:         store,
		remote:        remote,
		remoteTimeout: remoteTimeout,
		logger:        logging.NewComponentLogger(logger, "refdata"),
	}
}

// ResolveSupplier returns the supplier for name within orgID, creating it
// locally when unknown.
func (r *Resolver) ResolveSupplier(ctx context.Context, orgID, name string) (*Supplier, error) {
	display := strings.Join(strings.Fields(name), " ")
	normalized := Normalize(name)
	if orgID == "" || normalized == "" {
		return nil, services.Wrap(services.ErrValidation, "refdata", "resolve supplier", "organization and supplier name are required", nil)
	}

	existing, err := r.store.FindSupplier(ctx, orgID, normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	supplier := &Supplier{
		ID:             uuid.NewString(),
		OrgID:          orgID,
		Name:           display,
		NormalizedName: normalized,
	}
	if err := r.store.InsertSupplier(ctx, supplier); err != nil {
		if err == ErrDuplicate {
			// Lost a race to a concurrent insert; the winner's row is the
			// canonical one.
			return r.store.FindSupplier(ctx, orgID, normalized)
		}
		return nil, err
	}

	r.syncSupplier(ctx, supplier)
	return r.store.FindSupplier(ctx, orgID, normalized)
}

// ResolveModel returns the model for name within orgID, creating it locally
// when unknown. supplierID associates the model with its supplier and may be
// empty.
func (r *Resolver) ResolveModel(ctx context.Context, orgID, supplierID, name string) (*Model, error) {
	display := strings.Join(strings.Fields(name), " ")
	normalized := Normalize(name)
	if orgID == "" || normalized == "" {
		return nil, services.Wrap(services.ErrValidation, "refdata", "resolve model", "organization and model name are required", nil)
	}

	existing, err := r.store.FindModel(ctx, orgID, normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	model := &Model{
		ID:             uuid.NewString(),
		OrgID:          orgID,
		SupplierID:     supplierID,
		Name:           display,
		NormalizedName: normalized,
	}
	if err := r.store.InsertModel(ctx, model); err != nil {
		if err == ErrDuplicate {
			return r.store.FindModel(ctx, orgID, normalized)
		}
		return nil, err
	}

	r.syncModel(ctx, model)
	return r.store.FindModel(ctx, orgID, normalized)
}

func (r *Resolver) syncSupplier(ctx context.Context, supplier *Supplier) {
	if r.remote == nil {
		return
	}
	syncCtx, cancel := context.WithTimeout(ctx, r.remoteTimeout)
	defer cancel()

	remoteID, err := r.remote.CreateSupplier(syncCtx, supplier.OrgID, supplier.Name)
	if err != nil {
		r.logger.Warn("supplier sync deferred",
			logging.String("supplier", supplier.Name),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err))
		return
	}
	if err := r.store.MarkSupplierSynced(ctx, supplier.ID, remoteID); err != nil {
		r.logger.Warn("record supplier sync", logging.Error(err))
	}
}

func (r *Resolver) syncModel(ctx context.Context, model *Model) {
	if r.remote == nil {
		return
	}
	syncCtx, cancel := context.WithTimeout(ctx, r.remoteTimeout)
	defer cancel()

	remoteID, err := r.remote.CreateModel(syncCtx, model.OrgID, model.SupplierID, model.Name)
	if err != nil {
		r.logger.Warn("model sync deferred",
			logging.String("model", model.Name),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err))
		return
	}
	if err := r.store.MarkModelSynced(ctx, model.ID, remoteID); err != nil {
		r.logger.Warn("record model sync", logging.Error(err))
	}
}
