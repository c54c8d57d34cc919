package main

import (
	"flag"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mbrodan/sproutbank"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfp := flag.String("config", "config.yml", "path to configuration file")
	acct := flag.String("account", "", "target account ID")
	file := flag.String("file", "", "path to statement CSV export")
	flag.Parse()
	if *acct == "" || *file == "" {
		logger.Fatal().Msg("-account and -file are required")
	}

	acctID, err := snowflake.ParseString(*acct)
	if err != nil {
		logger.Fatal().Err(err).Msg("error parsing account ID")
	}

	var cfg sproutbank.Config
	cfgfl, err := os.Open(*cfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error opening config file")
	}
	if err = yaml.NewDecoder(cfgfl).Decode(&cfg); err != nil {
		logger.Fatal().Err(err).Msg("error decoding config file")
	}
	cfgfl.Close()
	if cs := os.Getenv("DATABASE_URL"); cs != "" {
		cfg.Database.ConnectionString = cs
	}

	pgendpt, err := sproutbank.NewPostgresEndpoint(cfg.Database.ConnectionString, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting database")
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		logger.Fatal().Err(err).Msg("error creating snowflake node")
	}
	svc, err := sproutbank.NewService(pgendpt, node, nil, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting service")
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal().Err(err).Msg("error opening statement file")
	}
	defer f.Close()

	rows, err := sproutbank.ParseStatement(f)
	if err != nil {
		logger.Fatal().Err(err).Msg("error parsing statement")
	}

	rep := sproutbank.NewImporter(svc, &logger).Run(acctID, rows)
	logger.Info().
		Int("imported", rep.Imported).
		Int("skipped", rep.Skipped).
		Msg("import complete")
	if rep.Skipped > 0 {
		os.Exit(1)
	}
}
