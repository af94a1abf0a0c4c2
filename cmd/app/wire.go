//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/branch-forecast/internal/bootstrap"
	"github.com/yanqian/branch-forecast/internal/domain/forecast"
	"github.com/yanqian/branch-forecast/internal/infra/chartrender"
	"github.com/yanqian/branch-forecast/internal/infra/config"
	"github.com/yanqian/branch-forecast/internal/infra/forecastapi"
	httpiface "github.com/yanqian/branch-forecast/internal/interface/http"
	"github.com/yanqian/branch-forecast/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideForecastConfig,
		provideForecastClient,
		provideFetchCounters,
		provideChartRenderer,
		provideAnomalyRecorder,
		forecast.NewController,
		wire.Bind(new(forecast.Fetcher), new(*forecastapi.Client)),
		wire.Bind(new(httpiface.PredictionService), new(*forecast.Controller)),
		wire.Bind(new(httpiface.ChartRenderer), new(*chartrender.Renderer)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
