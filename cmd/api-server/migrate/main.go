package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun/migrate"

	"github.com/onurmutlu/flirtmarket/pkg/app"
	"github.com/onurmutlu/flirtmarket/pkg/config"
	"github.com/onurmutlu/flirtmarket/pkg/migrations/appdb"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
	mghelper "github.com/onurmutlu/flirtmarket/pkg/pgutil/migrations"
)

func main() {
	cfgPath := flag.String("config", "config.example.yaml", "Path to configuration file")
	envFile := flag.String("env-file", ".env", "Optional dotenv file loaded before the config is read")
	flag.Usage = mghelper.Usage
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading env file: %s", err.Error())
	}

	cfg, err := config.LoadAPIServer(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}

	var runner app.Runner = app.RunnerFunc(func() error {
		db, err := pgutil.ConnectDB(&cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		log.Printf("Running migrations for %s (users, ledger, chat, referrals, monetization)...\n", cfg.Database.Database)
		return mghelper.RunMigrations(migrate.NewMigrator(db, appdb.Migrations), flag.Args()...)
	})

	if err := runner.Run(); err != nil {
		mghelper.Exitf("%s", err.Error())
	}
}
