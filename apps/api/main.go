package main

import (
	"log"
	"os"

	"github.com/trezcool/ripoti/apps/api/echo"
	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/achievement"
	"github.com/trezcool/ripoti/core/report"
	"github.com/trezcool/ripoti/core/school"
	"github.com/trezcool/ripoti/services/email"
	"github.com/trezcool/ripoti/services/logger"
	"github.com/trezcool/ripoti/storage/database"
	"github.com/trezcool/ripoti/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	catalog := achievement.DefaultCatalog()
	if path := conf.Report.RuleCatalogPath; path != "" {
		catalog, err = achievement.LoadCatalog(path)
		errAndDie(err)
	}

	schoolSvc := school.NewService(sqlxrepos.NewSchoolRepository(db))
	engine := achievement.NewEngine(schoolSvc, catalog)
	compiler := report.NewCompiler(schoolSvc, engine, conf.Report)
	reportSvc := report.NewService(compiler, mailSvc, logger)

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Addr:      conf.Server.Addr(),
		Conf:      conf,
		Logger:    logger,
		SchoolSvc: schoolSvc,
		Engine:    engine,
		ReportSvc: reportSvc,
	})
	app.Start()
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
