package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sprite-ai/bookrate/internal/config"
	"github.com/sprite-ai/bookrate/internal/logging"
	"github.com/sprite-ai/bookrate/internal/metrics"
	"github.com/sprite-ai/bookrate/internal/rating"
	"github.com/sprite-ai/bookrate/internal/shelf"
	"github.com/sprite-ai/bookrate/internal/wallet"
)

// app holds the components a command works with.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Recorder
	wallet  wallet.Wallet
	shelf   *shelf.Store
	flow    *rating.Flow
}

// flagOverrides maps explicitly set persistent flags to config keys.
func flagOverrides(cmd *cobra.Command) map[string]any {
	keys := map[string]string{
		"backend":   "backend",
		"contract":  "contract_id",
		"account":   "account_id",
		"log-level": "log_level",
	}
	overrides := make(map[string]any)
	for flag, key := range keys {
		f := cmd.Flag(flag)
		if f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	return overrides
}

// newApp loads configuration and builds the wallet, shelf and rating flow.
// console adds a stderr log sink for long-running commands.
func newApp(cmd *cobra.Command, console bool) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, flagOverrides(cmd))
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel, Console: console})
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("contract", cfg.ContractID))

	session := wallet.NewSession(cfg.SessionFile, cfg.AccountID)

	var w wallet.Wallet
	switch cfg.Backend {
	case config.BackendMemory:
		w = wallet.NewMemory(cfg.ContractID, session)
	default:
		w = wallet.NewRPC(cfg.RPCURL, cfg.RelayerURL, session,
			wallet.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
			wallet.WithPolling(cfg.PollInterval(), cfg.PollAttempts),
			wallet.WithLogger(log.Named("wallet")),
		)
	}

	if _, err := w.StartUp(cmd.Context()); err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	rec := metrics.New(metrics.WithHistogramBuckets(cfg.MetricsBuckets))
	store := shelf.New(w, cfg.ContractID,
		shelf.WithLogger(log.Named("shelf")),
		shelf.WithMetrics(rec),
	)
	flow := rating.New(w, store, cfg.ContractID,
		rating.WithLogger(log.Named("rating")),
		rating.WithMetrics(rec),
	)

	log.Debug("configured", zap.String("backend", cfg.Backend), zap.String("network", cfg.Network))

	return &app{
		cfg:     cfg,
		log:     log,
		metrics: rec,
		wallet:  w,
		shelf:   store,
		flow:    flow,
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}
