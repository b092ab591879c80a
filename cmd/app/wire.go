//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/kundali-web/internal/bootstrap"
	"github.com/yanqian/kundali-web/internal/domain/analysis"
	"github.com/yanqian/kundali-web/internal/domain/chart"
	"github.com/yanqian/kundali-web/internal/domain/chat"
	"github.com/yanqian/kundali-web/internal/domain/form"
	"github.com/yanqian/kundali-web/internal/domain/places"
	"github.com/yanqian/kundali-web/internal/domain/session"
	"github.com/yanqian/kundali-web/internal/infra/astroapi"
	"github.com/yanqian/kundali-web/internal/infra/config"
	httpiface "github.com/yanqian/kundali-web/internal/interface/http"
	"github.com/yanqian/kundali-web/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAstroClient,
		provideFormConfig,
		providePlacesConfig,
		provideDebouncer,
		provideSessionConfig,
		provideSessionCookies,
		provideValkey,
		provideSessionStore,
		providePlaceCache,
		session.NewManager,
		form.NewController,
		chart.NewDashas,
		places.NewService,
		analysis.NewService,
		chat.NewService,
		wire.Bind(new(form.ChartBackend), new(*astroapi.Client)),
		wire.Bind(new(form.SubmissionRecorder), new(*session.Manager)),
		wire.Bind(new(places.Lookup), new(*astroapi.Client)),
		wire.Bind(new(analysis.Backend), new(*astroapi.Client)),
		wire.Bind(new(analysis.Sessions), new(*session.Manager)),
		wire.Bind(new(chat.Backend), new(*astroapi.Client)),
		wire.Bind(new(chat.Sessions), new(*session.Manager)),
		wire.Bind(new(chart.Sessions), new(*session.Manager)),
		wire.Bind(new(httpiface.ChartSubmitter), new(*form.Controller)),
		wire.Bind(new(httpiface.DashaToggler), new(*chart.Dashas)),
		httpiface.NewViews,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
