package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	echoapi "github.com/darasahub/darasa/apps/api/echo"
	"github.com/darasahub/darasa/core"
	"github.com/darasahub/darasa/core/auth"
	"github.com/darasahub/darasa/core/principal"
	"github.com/darasahub/darasa/realtime"
	emailsvc "github.com/darasahub/darasa/services/email"
	logsvc "github.com/darasahub/darasa/services/logger"
	"github.com/darasahub/darasa/storage/database"
	"github.com/darasahub/darasa/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, conf.AppName+" - ", log.LstdFlags|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	if err := run(conf, logger); err != nil {
		logger.Fatal("running server", err)
	}
}

func run(conf *core.Config, logger core.Logger) error {
	// request payload validation
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator(enLocale.Locale())
	validate := validator.New()
	core.InitValidators(validate, translator)
	principal.InitValidators(validate, translator)

	// database
	if err := database.CreateIfNotExist(conf); err != nil {
		return errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	if err = database.Migrate(db); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	sdb := sqlx.NewDb(db, conf.Database.Engine)

	// stores & trackers
	stores := sqlxrepos.Stores(sdb)
	lockouts := principal.NewLockoutTracker(
		sqlxrepos.NewLockoutRepository(sdb),
		conf.Auth.LockoutThreshold,
		conf.Auth.LockoutCooldown,
	)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// identity & authorization
	principalSvc := principal.NewService(stores, lockouts, mailSvc, conf, logger)
	resolver := principal.NewResolver(stores, lockouts)
	codec := auth.NewCodec(conf)
	guard := auth.NewGuard(codec, resolver, logger)

	// realtime bus
	registry := realtime.NewRegistry()
	router := realtime.NewRouter(registry, stores.Guardians, logger)

	server := echoapi.NewServer(&echoapi.ServerDeps{
		Conf:         conf,
		Logger:       logger,
		Guard:        guard,
		Codec:        codec,
		PrincipalSvc: principalSvc,
		Registry:     registry,
		Router:       router,
		Validate:     validate,
		Translator:   translator,
	})
	server.Start()
	logger.Info("API server listening at " + conf.Server.APIHost)

	select {
	case err = <-server.Errors():
		return errors.Wrap(err, "server error")

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: start shutdown...", sig))

		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
		logger.Info("shutdown complete")
	}
	return nil
}
