package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ark-network/ark-dice/internal/config"
	httpservice "github.com/ark-network/ark-dice/internal/interface/http"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

//nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := cli.NewApp()

	app.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	app.Name = "arkdiced"
	app.Usage = "Provably-fair dice settlement server"
	app.Flags = append(app.Flags, urlFlag, adminUserFlag, adminPassFlag)
	app.Commands = append(
		app.Commands,
		nonceCmd,
		payoutsCmd,
		consolidateCmd,
		recoverCmd,
		unresolvedCmd,
		verifyCmd,
	)
	app.Action = mainAction

	if err := app.Run(os.Args); err != nil {
		fmt.Println(fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

func mainAction(_ *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))
	log.Debugf("loaded config: %s", cfg)

	svcConfig := httpservice.Config{
		Port:      cfg.Port,
		AdminUser: cfg.AdminUser,
		AdminPass: cfg.AdminPass,
	}

	svc, err := httpservice.NewService(svcConfig, cfg)
	if err != nil {
		return err
	}

	log.RegisterExitHandler(svc.Stop)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, os.Interrupt)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)

	return nil
}
