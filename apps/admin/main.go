package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/darasahub/darasa/core"
	"github.com/darasahub/darasa/core/principal"
	emailsvc "github.com/darasahub/darasa/services/email"
	logsvc "github.com/darasahub/darasa/services/logger"
	"github.com/darasahub/darasa/storage/database"
	"github.com/darasahub/darasa/storage/database/sqlxrepos"
)

var stdLogger *log.Logger

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	stdLogger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())
	sdb := sqlx.NewDb(db, conf.Database.Engine)

	stores := sqlxrepos.Stores(sdb)
	lockouts := principal.NewLockoutTracker(
		sqlxrepos.NewLockoutRepository(sdb),
		conf.Auth.LockoutThreshold,
		conf.Auth.LockoutCooldown,
	)
	svc := principal.NewService(stores, lockouts, emailsvc.NewConsoleService(conf), conf, logger)

	// start CLI
	cli := commandLine{db: db, svc: svc}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		stdLogger.Fatal(err)
	}
}
