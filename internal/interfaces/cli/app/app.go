// Package app wires configuration, logging, catalogs and the run-wide
// services shared by every samsync command.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/sbn-software/samsync/internal/application/migration"
	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/infrastructure/cache"
	"github.com/sbn-software/samsync/internal/infrastructure/config"
	"github.com/sbn-software/samsync/internal/infrastructure/database"
	"github.com/sbn-software/samsync/internal/infrastructure/invalidlog"
	"github.com/sbn-software/samsync/internal/infrastructure/repository"
	"github.com/sbn-software/samsync/internal/infrastructure/samweb"
	sharedConfig "github.com/sbn-software/samsync/internal/shared/config"
	"github.com/sbn-software/samsync/internal/shared/constants"
	"github.com/sbn-software/samsync/internal/shared/logger"
)

// flushTimeout bounds the final flag flush, which runs after the run context
// may already be cancelled.
const flushTimeout = 2 * time.Minute

// GlobalFlags are the persistent flags of the root command.
type GlobalFlags struct {
	ConfigPath string
	Experiment string
	Output     string
	NoLock     bool
}

func (f *GlobalFlags) Register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.PersistentFlags().StringVarP(&f.Experiment, "experiment", "e", "", "Source experiment (default: $SAM_EXPERIMENT)")
	cmd.PersistentFlags().StringVarP(&f.Output, "output", "o", constants.OutputText, "Summary format (text, json, yaml)")
	cmd.PersistentFlags().BoolVar(&f.NoLock, "no-lock", false, "Do not take the redis run lock even when redis is enabled")
}

// Runtime holds everything one command invocation needs.
type Runtime struct {
	Config *config.Config
	Logger logger.Interface
	Source catalog.Catalog
	Target catalog.Catalog

	flags   *GlobalFlags
	redis   *redis.Client
	closers []func() error
}

// Bootstrap loads and validates configuration and initializes logging.
func Bootstrap(flags *GlobalFlags) (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if flags.Experiment != "" {
		cfg.Source.Experiment = flags.Experiment
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.NewLogger(), nil
}

// Setup bootstraps the process and opens both catalogs.
func Setup(flags *GlobalFlags) (*Runtime, error) {
	cfg, log, err := Bootstrap(flags)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config: cfg,
		Logger: log,
		flags:  flags,
	}

	if rt.Source, err = rt.openCatalog(&cfg.Source); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to open source catalog: %w", err)
	}
	if rt.Target, err = rt.openCatalog(&cfg.Target); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to open target catalog: %w", err)
	}

	rt.Logger.Infow("catalogs ready",
		"source", rt.Source.Experiment(),
		"target", rt.Target.Experiment())
	return rt, nil
}

func (rt *Runtime) openCatalog(cfg *sharedConfig.CatalogConfig) (catalog.Catalog, error) {
	log := rt.Logger.With("catalog", cfg.Experiment)
	switch cfg.Backend {
	case constants.BackendSQL:
		db, err := database.Open(&cfg.Database, log)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() error { return database.Close(db) })
		return repository.NewCatalogRepository(db, cfg.Experiment, log), nil
	case constants.BackendSAMWeb, "":
		return samweb.NewClient(&cfg.SAMWeb, cfg.Experiment, log.Named("samweb"))
	default:
		return nil, fmt.Errorf("unsupported catalog backend %q", cfg.Backend)
	}
}

// Close releases every resource opened by Setup, in reverse order.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && rt.Logger != nil {
			rt.Logger.Warnw("failed to release resource", "error", err)
		}
	}
	rt.closers = nil
	_ = logger.Sync()
}

// SignalContext is cancelled on SIGINT or SIGTERM; the engine stops between
// entities.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Lock takes the run lock of kind for the source experiment when redis is
// enabled. The returned release function is always safe to call.
func (rt *Runtime) Lock(ctx context.Context, kind migration.Kind) (func(), error) {
	noop := func() {}
	if !rt.Config.Redis.Enabled || rt.flags.NoLock {
		return noop, nil
	}

	if rt.redis == nil {
		rc := rt.Config.Redis
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     rc.GetAddr(),
			Password: rc.Password,
			DB:       rc.DB,
		})
		rt.closers = append(rt.closers, rt.redis.Close)
	}

	locker := cache.NewRunLocker(rt.redis, rt.Config.Redis.LockTTL(), rt.Logger.Named("runlock"))
	lock, err := locker.Acquire(ctx, string(kind), rt.Source.Experiment())
	if err != nil {
		return noop, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := lock.Release(ctx); err != nil {
			rt.Logger.Warnw("failed to release run lock", "key", lock.Key(), "error", err)
		}
	}, nil
}

// NewSession starts a migration session. invalidPath, when set, overrides the
// configured invalid-entries log.
func (rt *Runtime) NewSession(invalidPath string) (*migration.Session, error) {
	opts := migration.OptionsFromConfig(&rt.Config.Migration, rt.Source.Experiment())
	session := migration.NewSession(rt.Source, rt.Target, opts, rt.Logger.Named("migration.queue"))

	if invalidPath == "" {
		invalidPath = rt.Config.Migration.InvalidLog
	}
	if invalidPath != "" {
		w, err := invalidlog.Open(invalidPath)
		if err != nil {
			return nil, err
		}
		session.SetInvalidRecorder(w)
		rt.closers = append(rt.closers, w.Close)
		rt.Logger.Infow("recording invalid entries", "path", invalidPath)
	}
	return session, nil
}

// Finish flushes the session with a fresh bounded context, so buffered flag
// writes survive cancellation.
func (rt *Runtime) Finish(session *migration.Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	return session.Close(ctx)
}

// Component returns the logger of one engine component.
func (rt *Runtime) Component(name string) logger.Interface {
	return rt.Logger.Named(name)
}
