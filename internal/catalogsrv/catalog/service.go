package catalog

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tansive/polycatalog/internal/catalogsrv/catcommon"
	"github.com/tansive/polycatalog/internal/catalogsrv/config"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dbmanager"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/statements"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/txn"
	"github.com/tansive/polycatalog/pkg/types"
)

// DefaultSchema is the schema created in the default database at bootstrap.
const DefaultSchema = "public"

type Options struct {
	MaxIdleHandlers int
	Bootstrap       config.BootstrapConfig
}

// OptionsFromConfig picks the service options out of the full configuration.
func OptionsFromConfig(cfg *config.ConfigParam) Options {
	return Options{
		MaxIdleHandlers: cfg.Pool.MaxIdleHandlers,
		Bootstrap:       cfg.Bootstrap,
	}
}

// Service owns the storage connector, the local and XA handler pools and
// the registry of per transaction catalogs.
type Service struct {
	connector dbmanager.Connector
	local     *txn.LocalPool
	xa        *txn.XaPool
	catalogs  sync.Map
	opts      Options
}

// Open connects to the storage named in cfg and, if enabled, bootstraps the
// catalog. A failed bootstrap is logged; the service is still returned.
func Open(ctx context.Context, cfg *config.ConfigParam) (*Service, error) {
	connector, err := dbmanager.NewConnector(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := New(connector, OptionsFromConfig(cfg))
	if cfg.Bootstrap.Enabled {
		if err := s.Bootstrap(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("catalog bootstrap failed")
		}
	}
	return s, nil
}

// New builds a service on an already opened connector.
func New(connector dbmanager.Connector, opts Options) *Service {
	return &Service{
		connector: connector,
		local:     txn.NewLocalPool(connector, opts.MaxIdleHandlers),
		xa:        txn.NewXaPool(connector, opts.MaxIdleHandlers),
		opts:      opts,
	}
}

// Bootstrap drops and recreates the catalog tables and seeds the default
// user, database and schema. No catalog data survives it.
func (s *Service) Bootstrap(ctx context.Context) error {
	hash, err := catcommon.HashPassword(s.opts.Bootstrap.DefaultPassword)
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	h, err := s.local.Get(ctx)
	if err != nil {
		return err
	}
	return statements.Bootstrap(ctx, h, statements.SeedParams{
		User:         s.opts.Bootstrap.DefaultUser,
		PasswordHash: hash,
		Database:     s.opts.Bootstrap.DefaultDatabase,
		Schema:       DefaultSchema,
	})
}

// GetCatalog returns the catalog bound to xid, creating it on first use.
// Concurrent first calls for one xid receive the same catalog.
func (s *Service) GetCatalog(xid types.Xid) Catalog {
	if v, ok := s.catalogs.Load(xid); ok {
		return v.(*catalogImpl)
	}
	v, _ := s.catalogs.LoadOrStore(xid, &catalogImpl{xid: xid, svc: s})
	return v.(*catalogImpl)
}

// RemoveCatalog forgets the catalog bound to xid. Catalogs call it when
// their transaction ends.
func (s *Service) RemoveCatalog(ctx context.Context, xid types.Xid) {
	if _, loaded := s.catalogs.LoadAndDelete(xid); !loaded {
		log.Ctx(ctx).Error().Str("xid", xid.String()).Msg("no catalog registered for xid")
	}
}

// ActiveCatalogs returns the number of catalogs in the registry.
func (s *Service) ActiveCatalogs() int {
	n := 0
	s.catalogs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// readLocal runs fn in a short local transaction that is committed if fn
// succeeds and rolled back otherwise.
func readLocal[T any](ctx context.Context, s *Service, fn func(ctx context.Context, ex statements.Executor) (T, error)) (T, error) {
	var zero T
	h, err := s.local.Get(ctx)
	if err != nil {
		return zero, err
	}
	v, err := fn(ctx, h)
	if err != nil {
		if rbErr := h.Rollback(ctx); rbErr != nil {
			log.Ctx(ctx).Error().Err(rbErr).Msg("failed to roll back local transaction")
		}
		return zero, err
	}
	if err := h.Commit(ctx); err != nil {
		return zero, err
	}
	return v, nil
}

// GetUser looks a user up outside of any global transaction.
func (s *Service) GetUser(ctx context.Context, username string) (*models.User, error) {
	return readLocal(ctx, s, func(ctx context.Context, ex statements.Executor) (*models.User, error) {
		return statements.GetUser(ctx, ex, username)
	})
}

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	return readLocal(ctx, s, statements.GetUsers)
}

func (s *Service) GetStores(ctx context.Context) ([]models.Store, error) {
	return readLocal(ctx, s, statements.GetStores)
}

// AddUser creates a user in its own local transaction.
func (s *Service) AddUser(ctx context.Context, username, password string) (int64, error) {
	if err := validateInput(&models.User{Username: username}); err != nil {
		return 0, err
	}
	hash, err := catcommon.HashPassword(password)
	if err != nil {
		return 0, dberror.ErrDatabase.Err(err)
	}
	return readLocal(ctx, s, func(ctx context.Context, ex statements.Executor) (int64, error) {
		return statements.AddUser(ctx, ex, username, hash)
	})
}

// Authenticate checks a user's password. Unknown users and wrong passwords
// both fail with ErrAuthFailed.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.GetUser(ctx, username)
	if err != nil {
		if dberror.IsNotFound(err) {
			return nil, ErrAuthFailed
		}
		return nil, err
	}
	ok, err := catcommon.VerifyPassword(u.Password, password)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user", username).Msg("stored password hash is unreadable")
		return nil, ErrAuthFailed
	}
	if !ok {
		return nil, ErrAuthFailed
	}
	return u, nil
}

// Stats reports the local and XA pool counters.
func (s *Service) Stats() (local, xa txn.PoolStats) {
	return s.local.Stats(), s.xa.Stats()
}

// Close rolls back open branches and releases every connection.
func (s *Service) Close(ctx context.Context) {
	s.xa.Close(ctx)
	s.local.Close(ctx)
	s.catalogs.Range(func(k, _ any) bool {
		s.catalogs.Delete(k)
		return true
	})
	if err := s.connector.Close(); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to close connector")
	}
}
