package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"food-storefront/backend"
	"food-storefront/checkout"
	"food-storefront/config"
	"food-storefront/notify"
	"food-storefront/storage"
	"food-storefront/store"
)

// app is everything a command needs, wired from the environment.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	db       *gorm.DB
	client   *backend.Client
	local    *storage.Local
	session  *storage.Session
	notices  *notify.Center
	store    *store.Store
	checkout *checkout.Service

	// loadErr is the error from the initial catalog and session load. The
	// server starts anyway; terminal views report it.
	loadErr error
}

func bootstrap(ctx context.Context) (*app, error) {
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	db, err := config.InitDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	session, err := storage.NewSession(db, runID)
	if err != nil {
		return nil, err
	}
	local := storage.NewLocal(db)
	log.WithFields(logrus.Fields{"db": cfg.DBPath, "run": runID}).Debug("local storage ready")

	notices := notify.NewCenter(notify.DefaultCapacity, log)
	client := backend.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, log)
	st := store.New(client, local,
		store.WithNotifier(notices),
		store.WithLogger(log),
		store.WithRefreshTimeout(cfg.RequestTimeout),
	)

	co := checkout.NewService(client, st, local, session,
		checkout.WithDeliveryFee(cfg.DeliveryFee),
		checkout.WithNotifier(notices),
		checkout.WithLogger(log),
	)

	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		client:   client,
		local:    local,
		session:  session,
		notices:  notices,
		store:    st,
		checkout: co,
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	if a.loadErr = st.Load(loadCtx); a.loadErr != nil {
		log.WithError(a.loadErr).Warn("storefront loaded incompletely")
	}
	return a, nil
}

func (a *app) close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		a.log.WithError(err).Warn("close local storage")
	}
}
