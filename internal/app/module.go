package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/solemarket/solechat/internal/api"
	"github.com/solemarket/solechat/internal/bus"
	"github.com/solemarket/solechat/internal/compose"
	"github.com/solemarket/solechat/internal/config"
	"github.com/solemarket/solechat/internal/convo"
	"github.com/solemarket/solechat/internal/lock"
	"github.com/solemarket/solechat/internal/logging"
	"github.com/solemarket/solechat/internal/model"
	"github.com/solemarket/solechat/internal/readsync"
	"github.com/solemarket/solechat/internal/rest"
	"github.com/solemarket/solechat/internal/session"
	"github.com/solemarket/solechat/internal/tui"
)

// Params holds the resolved invocation settings passed to the fx module.
type Params struct {
	Profile string
	ToUser  int64 // --to-user deep link, 0 when absent
}

// Module returns the fx module for the client, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("solechat",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideCredStore,
			provideRestClient,
			provideAuthService,
			provideMessageService,
			provideUserService,
			provideStore,
			provideReadSync,
			provideComposer,
			provideApp,
		),
		fx.Invoke(wireReadSync),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() *config.Config {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		// A missing config file means defaults; the nil-safe accessors
		// handle it.
		return nil
	}
	return cfg
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.Profile), p.Profile, false)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *session.Machine {
	return session.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(session.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideCredStore(p Params, logger *zap.Logger) (*session.CredStore, error) {
	dbPath := session.CredsDBPath(p.Profile)
	creds, err := session.OpenCreds(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := creds.Migrate()
	if err != nil {
		_ = creds.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("credential store opened", zap.String("path", dbPath))
	return creds, nil
}

func provideRestClient(cfg *config.Config, creds *session.CredStore, machine *session.Machine, b *bus.Bus, logger *zap.Logger) *rest.Client {
	onExpired := func() {
		if err := creds.Clear(); err != nil {
			logger.Warn("clearing credentials on expiry failed", zap.Error(err))
		}
		if err := machine.Transition(session.Expired); err == nil {
			b.Publish(bus.Event{Topic: bus.TopicSessionExpired})
		}
	}
	return rest.New(cfg.EffectiveBaseURL(), creds, logger, onExpired)
}

func provideAuthService(client *rest.Client) *api.AuthService {
	return api.NewAuthService(client)
}

func provideMessageService(client *rest.Client, logger *zap.Logger) *api.MessageService {
	return api.NewMessageService(client, logger)
}

func provideUserService(client *rest.Client) *api.UserService {
	return api.NewUserService(client)
}

func provideStore(cfg *config.Config, msgs *api.MessageService, users *api.UserService, creds *session.CredStore, b *bus.Bus, logger *zap.Logger) (*convo.Store, error) {
	var self model.User
	if u, err := creds.CurrentUser(); err != nil {
		return nil, err
	} else if u != nil {
		self = *u
	}
	return convo.NewStore(msgs, users, self, b, logger,
		cfg.PartnerPollInterval(), cfg.ThreadPollInterval()), nil
}

func provideReadSync(msgs *api.MessageService, logger *zap.Logger) *readsync.Synchronizer {
	return readsync.New(msgs, logger)
}

func provideComposer(msgs *api.MessageService, store *convo.Store, logger *zap.Logger) *compose.Composer {
	return compose.New(msgs, store, logger)
}

func provideApp(p Params, store *convo.Store, composer *compose.Composer, auth *api.AuthService, creds *session.CredStore, machine *session.Machine, b *bus.Bus, logger *zap.Logger) *tui.App {
	return tui.NewApp(tui.Deps{
		Profile:  p.Profile,
		ToUser:   p.ToUser,
		Store:    store,
		Composer: composer,
		Auth:     auth,
		Creds:    creds,
		Machine:  machine,
		Bus:      b,
		Logger:   logger,
	})
}

// wireReadSync connects the synchronizer to partner selection: selecting a
// conversation marks it read on the server, then locally.
func wireReadSync(store *convo.Store, syncer *readsync.Synchronizer) {
	store.SetReadSync(func(ctx context.Context, partnerID int64) {
		syncer.Sync(ctx, partnerID, store)
	})
}

func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, app *tui.App, store *convo.Store, creds *session.CredStore, machine *session.Machine, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Restore a stored session before the first frame renders.
			if u, err := creds.CurrentUser(); err == nil && u != nil {
				if err := machine.Transition(session.Ready); err == nil {
					logger.Info("session restored", zap.String("username", u.Username))
				}
			}

			app.SetOnQuit(func() { _ = shutdowner.Shutdown() })

			go func() {
				if err := app.Run(); err != nil {
					logger.Error("tui error", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			app.Stop()
			store.Stop()
			if err := creds.Close(); err != nil {
				logger.Warn("error closing credential store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}
