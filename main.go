package main

import (
	"context"
	"log"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/urfave/cli/v2"

	"github.com/williamcjrogers/VeriCaseJet-sub003/config"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/database"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/logger"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/repository"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/tracing"
	"github.com/williamcjrogers/VeriCaseJet-sub003/server"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services"
)

func main() {
	app := &cli.App{
		Name:  "evidence-ingest",
		Usage: "mailbox archive ingestion and threading engine",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "run database migrations",
				Action: runMigrate,
			},
			{
				Name:   "server",
				Usage:  "start the application server",
				Action: runServer,
			},
			{
				Name:  "ingest",
				Usage: "ingest one archive file and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "case", Usage: "case the archive belongs to", Required: true},
					&cli.StringFlag{Name: "file", Usage: "path to the archive file", Required: true},
				},
				Action: runIngest,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runMigrate(c *cli.Context) error {
	cfg, err := config.InitConfig()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(cfg.DatabaseConfig)
	if err != nil {
		return err
	}

	if err := repository.MigrateDB(db); err != nil {
		return err
	}
	log.Println("Database migration completed successfully")
	return nil
}

func runServer(c *cli.Context) error {
	cfg, err := config.InitConfig()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(cfg.DatabaseConfig)
	if err != nil {
		return err
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Evidence ingestion engine starting up...")

	srv, err := server.NewServer(cfg, db)
	if err != nil {
		return err
	}

	if err := srv.Run(); err != nil {
		return err
	}

	log.Println("Shutdown complete")
	return nil
}

func runIngest(c *cli.Context) error {
	cfg, err := config.InitConfig()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(cfg.DatabaseConfig)
	if err != nil {
		return err
	}
	repos := repository.InitRepositories(db)

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		return err
	}
	defer closer.Close()
	opentracing.SetGlobalTracer(tracer)

	svcs, err := services.InitServices(cfg, appLogger, repos)
	if err != nil {
		return err
	}

	ctx := context.Background()
	record, err := svcs.IngestionService.IngestContainer(ctx, c.String("case"), c.String("file"))
	if err != nil {
		return err
	}

	if err := svcs.Dispatcher.Drain(ctx); err != nil {
		appLogger.Warnf("dispatcher drain: %v", err)
	}
	_ = svcs.Publisher.Close()

	log.Printf("Ingested container %s: %d messages, %d attachments, %d threads",
		record.ID, record.MessageCount, record.AttachmentCount, record.ThreadCount)
	return nil
}
