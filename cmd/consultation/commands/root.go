package commands

import (
	"context"
	"net/http"
	"time"

	"consultation-booking/internal/common/config"
	"consultation-booking/internal/common/database"
	apperrors "consultation-booking/internal/common/errors"
	commonhttp "consultation-booking/internal/common/http"
	"consultation-booking/internal/common/logger"
	"consultation-booking/internal/common/observability"
	"consultation-booking/internal/consultation/gateway"
	"consultation-booking/internal/consultation/session"
	"consultation-booking/pkg/registry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	logLevel    string
	metricsAddr string

	appCtx *app
)

// app holds what every subcommand needs, built once per invocation.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	gateway *gateway.Client
	ledger  session.BookingLedger
	samples *registry.Samples
	obs     *observability.Observability
	redis   *database.RedisClient
}

func Execute() error {
	root := &cobra.Command{
		Use:           "consultation",
		Short:         "Book a free SEO consultation from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			appCtx = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appCtx != nil {
				appCtx.close()
			}
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./configs/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	root.AddCommand(wizardCmd(), contactCmd(), eventTypesCmd(), slotsCmd(), zonesCmd())
	return root.ExecuteContext(context.Background())
}

func newApp(ctx context.Context) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, apperrors.NewConfigInvalidError(err.Error())
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Debug("Configuration loaded", map[string]interface{}{"config": cfg.String()})

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("Observability disabled", map[string]interface{}{"error": err.Error()})
	}

	addr := metricsAddr
	if addr == "" && cfg.Metrics.Enabled {
		addr = cfg.Metrics.Address
	}
	if addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Info("Metrics server listening", map[string]interface{}{"address": addr})
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error("Metrics server failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		gateway: gateway.NewClient(gateway.LoadConfig(cfg), log,
			commonhttp.WithUserAgent(cfg.App.Name+"/"+cfg.App.Version)),
		ledger:  session.NewMemoryLedger(),
		samples: registry.NewSamples(cfg.Scheduling.SamplesPath),
		obs:     obs,
	}

	if cfg.Cache.Redis.Enabled() {
		rc, err := database.NewRedis(cfg.Cache.Redis)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err = rc.Ping(pingCtx)
			cancel()
		}
		if err != nil {
			// a booking made now is still guarded by the session itself
			log.Warn("Redis unavailable, using in-memory booking ledger", map[string]interface{}{"error": err.Error()})
		} else {
			a.redis = rc
			a.ledger = session.NewRedisLedger(rc, config.GetDuration(cfg.Cache.LedgerTTL))
		}
	}
	return a, nil
}

func (a *app) newSession() *session.Session {
	return session.New(session.Deps{
		Gateway:       a.gateway,
		Ledger:        a.ledger,
		Samples:       a.samples,
		Logger:        a.log,
		Observability: a.obs,
	}, session.LoadConfig(a.cfg))
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.obs.Shutdown(ctx)
	_ = a.log.Sync()
}
