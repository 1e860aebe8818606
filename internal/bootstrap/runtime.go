// Package bootstrap builds the runtime object graph from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"murmur/internal/blobstore"
	"murmur/internal/blobstore/local"
	blobmem "murmur/internal/blobstore/memory"
	blobs3 "murmur/internal/blobstore/s3"
	"murmur/internal/config"
	"murmur/internal/connectivity"
	"murmur/internal/docstore"
	"murmur/internal/docstore/firestore"
	"murmur/internal/docstore/memory"
	"murmur/internal/docstore/mongo"
	"murmur/internal/identity"
	"murmur/internal/observability"
	"murmur/internal/prefs"
	"murmur/internal/repository"
	"murmur/internal/service"
)

// Options control runtime initialization behavior.
type Options struct {
	// LogWriter receives structured logs. Nil discards them.
	LogWriter io.Writer
	// TraceWriter receives spans when tracing is enabled. Nil means stdout.
	TraceWriter io.Writer
}

// Runtime holds the backends, repositories and use cases of one process.
type Runtime struct {
	Config       *config.Config
	Store        docstore.Store
	Blobs        blobstore.Store
	Identity     identity.Service
	Prefs        prefs.Store
	Connectivity *connectivity.Observer

	AuthRepo repository.AuthRepository
	UserRepo repository.UserRepository
	PostRepo repository.PostRepository

	Auth     *service.AuthService
	Users    *service.UserService
	Posts    *service.PostService
	Settings *service.SettingsService

	closers []func(context.Context) error
}

// InitRuntime connects every backend named by cfg. On error, anything already
// opened is closed.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (_ *Runtime, err error) {
	w := opts.LogWriter
	if w == nil {
		w = io.Discard
	}
	observability.ConfigureLogger(w, cfg.LogLevel)
	observability.Config = observability.LoggingConfig{
		EnableRepoLogging:   cfg.LogRepoOps,
		EnableStreamLogging: cfg.LogStreamEvents,
	}

	rt := &Runtime{Config: cfg}
	defer func() {
		if err != nil {
			_ = rt.Close(context.Background())
		}
	}()

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName: "murmur",
		Environment: cfg.Env,
		Enabled:     cfg.TracingEnabled,
		Writer:      opts.TraceWriter,
	})
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, shutdownTracing)

	if rt.Store, err = openStore(ctx, cfg, rt); err != nil {
		return nil, fmt.Errorf("document store: %w", err)
	}
	blobs, err := openBlobs(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}
	rt.Blobs = blobstore.Instrument(blobs)

	if rt.Prefs, err = openPrefs(ctx, cfg, rt); err != nil {
		return nil, fmt.Errorf("preferences: %w", err)
	}

	rt.Identity = identity.NewLocal(rt.Store, identity.NewFileSession(cfg.SessionPath), cfg.JWTSecret, cfg.SessionTTL())
	rt.Connectivity = connectivity.New(cfg.ConnectivityProbeAddr, cfg.ConnectivityInterval())

	rt.AuthRepo = repository.NewAuthRepository(rt.Identity)
	rt.UserRepo = repository.NewUserRepository(rt.Store, rt.Blobs, rt.AuthRepo)
	rt.PostRepo = repository.NewPostRepository(rt.Store, rt.Blobs, rt.AuthRepo, rt.UserRepo)

	rt.Auth = service.NewAuthService(rt.AuthRepo)
	rt.Users = service.NewUserService(rt.UserRepo)
	rt.Posts = service.NewPostService(rt.PostRepo)
	rt.Settings = service.NewSettingsService(rt.Prefs)
	return rt, nil
}

// Close releases backends in reverse order of opening.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg *config.Config, rt *Runtime) (docstore.Store, error) {
	switch cfg.StoreBackend {
	case "firestore":
		s, err := firestore.New(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error { return s.Close() })
		return s, nil
	case "mongo":
		s, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error { return s.Close() })
		return s, nil
	default:
		if cfg.StorePath == "" {
			s := memory.New()
			rt.closers = append(rt.closers, func(context.Context) error { return s.Close() })
			return s, nil
		}
		s, err := memory.Open(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error {
			return errors.Join(s.Save(cfg.StorePath), s.Close())
		})
		return s, nil
	}
}

func openBlobs(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	switch cfg.BlobBackend {
	case "s3":
		return blobs3.New(ctx, blobs3.Options{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretKey,
			BucketPrefix:    cfg.S3BucketPrefix,
			PublicBaseURL:   cfg.BlobPublicBaseURL,
		})
	case "memory":
		return blobmem.New(cfg.BlobPublicBaseURL), nil
	default:
		return local.New(cfg.BlobRoot, cfg.BlobPublicBaseURL), nil
	}
}

func openPrefs(ctx context.Context, cfg *config.Config, rt *Runtime) (prefs.Store, error) {
	if cfg.PrefsBackend != "redis" {
		return prefs.NewFileStore(cfg.PrefsPath), nil
	}
	r, err := prefs.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, func(context.Context) error { return r.Close() })
	return r, nil
}
