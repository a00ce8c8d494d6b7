package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/action"
	"github.com/aretw0/arbor/pkg/adapters/bolt"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/contacts"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/link"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// app bundles the engine and the collaborators a command may need.
type app struct {
	engine  *arbor.Engine
	loader  *file.Loader
	codec   *link.Codec
	metrics *prometheus.Registry
	logger  *slog.Logger
	closers []func() error
}

// newApp builds an engine from the persistent flags, following the CLI conventions:
// Redis wins over Bolt, which wins over in-memory storage.
func newApp(cmd *cobra.Command, extra ...domain.LifecycleHooks) (*app, error) {
	flags := cmd.Flags()
	levelName, _ := flags.GetString("log-level")
	treesPath, _ := flags.GetString("trees")
	baseURL, _ := flags.GetString("base-url")

	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)

	loader, err := file.NewLoader(treesPath)
	if err != nil {
		return nil, fmt.Errorf("error loading trees: %w", err)
	}

	a := &app{
		loader:  loader,
		codec:   link.NewCodec(link.WithBaseURL(baseURL)),
		metrics: prometheus.NewRegistry(),
		logger:  logger,
	}

	store, events, locker, err := a.openStorage(cmd)
	if err != nil {
		return nil, err
	}
	events, err = wrapEvents(cmd, events)
	if err != nil {
		a.Close()
		return nil, err
	}

	m, err := observability.NewMetrics(a.metrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	hooks := append([]domain.LifecycleHooks{m.Hooks()}, extra...)
	if level <= slog.LevelDebug {
		hooks = append(hooks, observability.LoggingHooks(logger))
	}

	managerOpts := []contacts.Option{contacts.WithLogger(logger)}
	if locker != nil {
		managerOpts = append(managerOpts, contacts.WithLocker(locker))
	}

	a.engine = arbor.New(
		arbor.WithLogger(logger),
		arbor.WithLoader(loader),
		arbor.WithLifecycleHooks(observability.Combine(hooks...)),
		arbor.WithContactManager(contacts.NewManager(store, managerOpts...)),
		arbor.WithCapabilities(&action.Capabilities{
			Contacts: store,
			Events:   events,
			Mailer:   logMailer{logger: logger},
			Links:    a.codec,
			Logger:   logger,
		}),
	)
	return a, nil
}

func (a *app) openStorage(cmd *cobra.Command) (ports.ContactStore, ports.EventStore, ports.DistributedLocker, error) {
	flags := cmd.Flags()
	addr, _ := flags.GetString("redis")
	dbPath, _ := flags.GetString("db")

	switch {
	case addr != "":
		password, _ := flags.GetString("redis-password")
		db, _ := flags.GetInt("redis-db")
		client := redis.NewClient(addr, password, db)
		if err := client.Ping(cmd.Context()).Err(); err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("redis %s: %w", addr, err)
		}
		a.closers = append(a.closers, client.Close)
		a.logger.Debug("using redis storage", "addr", addr)
		return redis.NewStore(client), redis.NewEventStore(client), redis.NewLocker(client), nil

	case dbPath != "":
		db, err := bolt.Open(dbPath)
		if err != nil {
			return nil, nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.logger.Debug("using bolt storage", "path", db.Path())
		return bolt.NewStore(db), bolt.NewEventStore(db), nil, nil

	default:
		return memory.NewStore(), memory.NewEventStore(), nil, nil
	}
}

// wrapEvents applies the masking and sealing middlewares requested by flags.
func wrapEvents(cmd *cobra.Command, events ports.EventStore) (ports.EventStore, error) {
	flags := cmd.Flags()
	patterns, _ := flags.GetStringSlice("mask")
	keyHex, _ := flags.GetString("events-key")

	var mws []middleware.Middleware
	if len(patterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(patterns))
	}
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("--events-key must be 64 hex characters")
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return middleware.Chain(events, mws...), nil
}

// Close releases storage handles.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// logMailer writes outgoing messages to the log instead of delivering them.
type logMailer struct {
	logger *slog.Logger
}

func (m logMailer) Send(ctx context.Context, msg ports.Message) error {
	m.logger.InfoContext(ctx, "mail", "to", msg.To.Address, "subject", msg.Subject, "bytes", len(msg.Body))
	return nil
}

// parseActionID parses a positive tree id argument.
func parseActionID(arg string) (int32, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 32)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid action id %q", arg)
	}
	return int32(id), nil
}
