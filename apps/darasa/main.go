package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/services/rest"
)

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()

	std := log.New(os.Stdout, "DARASA : ", log.LstdFlags|log.Lmicroseconds)

	var logger core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		zl, err := logsvc.NewZapLogger(conf)
		errAndDie(std, err)
		logger = zl
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	store, err := session.NewFileStore(conf.Session.File)
	errAndDie(std, err)

	api := rest.NewClient(&rest.Options{
		Conf:    conf,
		Session: store,
		Logger:  logger,
		OnAuthExpired: func() {
			fmt.Println("Your session has expired. Please run `darasa login` again.")
		},
	})

	cli := commandLine{
		api: api,
		log: logger,
		out: os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
