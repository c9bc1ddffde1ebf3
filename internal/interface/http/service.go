package httpservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ark-network/ark-dice/internal/config"
	interfaces "github.com/ark-network/ark-dice/internal/interface"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type service struct {
	config    Config
	appConfig *config.Config
	server    *http.Server
}

func NewService(
	svcConfig Config, appConfig *config.Config,
) (interfaces.Service, error) {
	if err := svcConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}

	return &service{svcConfig, appConfig, nil}, nil
}

func (s *service) Start() error {
	appSvc, err := s.appConfig.AppService()
	if err != nil {
		return err
	}
	if err := appSvc.Start(); err != nil {
		return fmt.Errorf("failed to start app service: %s", err)
	}
	log.Info("started app service")

	s.server = &http.Server{
		Addr:              s.config.address(),
		Handler:           newRouter(appSvc, s.config),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped unexpectedly")
		}
	}()
	log.Infof("started listening at %s", s.config.address())

	return nil
}

func (s *service) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		//nolint:all
		s.server.Shutdown(ctx)
		log.Info("stopped http server")
	}

	appSvc, _ := s.appConfig.AppService()
	if appSvc != nil {
		appSvc.Stop()
		log.Info("stopped app service")
	}
}
