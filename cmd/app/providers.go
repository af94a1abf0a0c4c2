package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/branch-forecast/internal/domain/forecast"
	"github.com/yanqian/branch-forecast/internal/infra/anomalylog"
	"github.com/yanqian/branch-forecast/internal/infra/chartrender"
	"github.com/yanqian/branch-forecast/internal/infra/config"
	"github.com/yanqian/branch-forecast/internal/infra/forecastapi"
	"github.com/yanqian/branch-forecast/pkg/metrics"
)

func provideForecastConfig(cfg *config.Config) forecast.Config {
	return cfg.ForecastDefaults()
}

func provideForecastClient(cfg *config.Config) *forecastapi.Client {
	return forecastapi.NewClient(cfg.Forecast.Endpoint)
}

func provideFetchCounters() *metrics.FetchCounters {
	return &metrics.FetchCounters{}
}

func provideChartRenderer(cfg *config.Config) *chartrender.Renderer {
	return chartrender.NewRenderer(cfg.Chart.Width, cfg.Chart.Height)
}

func provideAnomalyRecorder(cfg *config.Config, logger *slog.Logger) forecast.AnomalyRecorder {
	capacity := cfg.Diagnostics.AnomalyCapacity
	if cfg.Diagnostics.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory anomaly log", "error", err)
			return anomalylog.NewMemoryLog(capacity)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory anomaly log", "error", err)
			return anomalylog.NewMemoryLog(capacity)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory anomaly log", "error", err)
			client.Close()
		} else {
			logger.Info("valkey anomaly log enabled", "addr", cfg.Diagnostics.Valkey.Addr)
			return anomalylog.NewValkeyLog(client, cfg.Diagnostics.Valkey.Prefix, capacity, logger)
		}
	}
	return anomalylog.NewMemoryLog(capacity)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	addr := cfg.Diagnostics.Valkey.Addr
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
