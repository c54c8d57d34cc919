package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mbrodan/sproutbank"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// optional; env vars override the config file
	_ = godotenv.Load()

	var cfg sproutbank.Config
	cfp := flag.String("config", "config.yml", "path to configuration file")
	flag.Parse()
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

	var repo sproutbank.Repository
	if cfg.Database.ConnectionString != "" {
		pgendpt, err := sproutbank.NewPostgresEndpoint(cfg.Database.ConnectionString, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("error starting database")
		}
		repo = pgendpt
	} else {
		logger.Warn().Msg("no database configured, using in-memory store")
		repo = sproutbank.NewMemoryStore()
	}

	var pub sproutbank.TxnPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp := sproutbank.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kp.Close()
		pub = kp
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		logger.Fatal().Err(err).Msg("error creating snowflake node")
	}

	svc, err := sproutbank.NewService(repo, node, pub, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting service")
	}

	interval := time.Hour
	if cfg.Scheduler.Interval != "" {
		interval, err = time.ParseDuration(cfg.Scheduler.Interval)
		if err != nil {
			logger.Fatal().Err(err).Msg("error parsing scheduler interval")
		}
	}
	eng := sproutbank.NewEngine(repo, svc, nil, &logger)
	sched := sproutbank.NewScheduler(eng, interval, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)

	limits := cfg.Limits
	if limits.Charge == 0 {
		limits.CreateAccount, limits.Charge, limits.Read, limits.Statement = 64, 256, 512, 16
	}
	wrapped := sproutbank.Chain(svc,
		sproutbank.NewCircuitBreakMiddleware(sproutbank.NewServiceBreaker()),
		sproutbank.NewLimitMiddleware(sproutbank.NewServiceLimits(
			limits.CreateAccount, limits.Charge, limits.Read, limits.Statement)),
		sproutbank.NewValidationMiddleware(),
	)
	hndlr := sproutbank.NewHTTPHandler(wrapped, &logger)

	listen := cfg.Listen
	if listen == "" {
		listen = ":3000"
	}
	logger.Info().Str("listen", listen).Msg("sproutbank started")
	if err = http.ListenAndServe(listen, hndlr); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
