package main

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/config"
	"github.com/mind-engage/motorskill/internal/db"
	"github.com/mind-engage/motorskill/internal/eventlog"
	"github.com/mind-engage/motorskill/internal/norms"
	"github.com/mind-engage/motorskill/internal/protocol"
	"github.com/mind-engage/motorskill/internal/storage"
	"github.com/mind-engage/motorskill/internal/users"
)

// memoryDSN backs users and events when records live in memory.
const memoryDSN = "file:motorskill-memory?mode=memory&cache=shared"

// app is the wired service graph shared by every command.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	db       *sql.DB
	protocol *protocol.Protocol
	store    assessment.Store
	builder  *assessment.Builder
	norms    *norms.Service
	users    *users.Repo
	events   *eventlog.EventRepo
	blobs    *storage.FSStore
}

func openApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	p, err := protocol.Load(cfg.ProtocolFile)
	if err != nil {
		return nil, err
	}
	scheme, _ := norms.LookupScheme(cfg.BandScheme)

	driver, dsn := db.Driver(cfg.DBDriver), cfg.DBDSN
	if cfg.DBDriver == "memory" {
		driver, dsn = db.DriverSQLite, memoryDSN
	}
	dbh, err := db.Open(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	var store assessment.Store
	if cfg.DBDriver == "memory" {
		store = assessment.NewMemoryStore()
	} else {
		store = assessment.NewSQLStore(dbh, cfg.DBDriver)
	}

	blobs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		_ = dbh.Close()
		return nil, fmt.Errorf("blob store: %w", err)
	}

	return &app{
		cfg:      cfg,
		log:      log,
		db:       dbh,
		protocol: p,
		store:    store,
		builder:  assessment.NewBuilder(p, assessment.Options{AgeBandWidth: cfg.AgeBandWidth, NameLocale: cfg.Locale()}),
		norms:    norms.NewService(store, p, norms.Options{ExcludeSelf: cfg.ExcludeSelf, Scheme: scheme}, log.Named("norms")),
		users:    users.NewRepo(dbh),
		events:   eventlog.NewEventRepo(dbh, log.Named("events")),
		blobs:    blobs,
	}, nil
}

func (a *app) Close() error { return a.db.Close() }
