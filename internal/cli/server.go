package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"photo-quest-service/internal/app"
	"photo-quest-service/internal/config"
	"photo-quest-service/internal/infra/clip"
	"photo-quest-service/internal/infra/images"
	"photo-quest-service/internal/infra/kafka"
	"photo-quest-service/internal/infra/memory"
	"photo-quest-service/internal/infra/postgres"
	redisinfra "photo-quest-service/internal/infra/redis"
	"photo-quest-service/internal/logging"
	transport "photo-quest-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quest server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores groups the persistence ports so one backend can fill all three.
type stores struct {
	quests app.QuestStore
	users  app.UserStore
	ledger app.RewardLedger
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st stores
	durable := cfg.Postgres.URL != ""
	if durable {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		pg := postgres.NewStore(pool)
		st = stores{quests: pg, users: pg, ledger: pg}
	} else {
		logger.Warn("postgres url not configured, using in-memory store")
		mem := memory.NewStore()
		st = stores{quests: mem, users: mem, ledger: mem}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	cacheTTL := config.TTLDuration(cfg.Quest.CacheTTL, 10*time.Minute)
	switch {
	case redisClient != nil:
		st.quests = redisinfra.NewQuestCache(redisClient, st.quests, cacheTTL)
	case durable:
		st.quests = memory.NewQuestCache(st.quests, cacheTTL)
	}
	if cfg.Reward.Ledger == "redis" {
		if redisClient == nil {
			logger.Warn("reward ledger set to redis but redis is not configured, keeping store ledger")
		} else {
			st.ledger = redisinfra.NewRewardLedger(redisClient)
		}
	}

	var scorer app.Scorer
	if cfg.Scorer.URL != "" {
		scorer = clip.NewClient(cfg.Scorer.URL, &http.Client{})
	} else {
		logger.WithField("probability", *cfg.Scorer.StaticScore).Warn("scorer url not configured, using static scorer")
		scorer = clip.StaticScorer{Probability: *cfg.Scorer.StaticScore}
	}
	scoring := app.NewScoringCoordinator(scorer, config.TTLDuration(cfg.Scorer.Timeout, 10*time.Second), cfg.Scorer.MaxEdge)

	imageStore, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	feed := app.NewFeed()
	publishers := app.Publishers{feed}
	if cfg.Kafka.Enabled {
		pub, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer pub.Close()
		publishers = append(publishers, pub)
	}

	retry := app.RetryPolicy{
		InitialInterval: config.TTLDuration(cfg.Reward.InitialInterval, app.DefaultRetryPolicy.InitialInterval),
		MaxInterval:     config.TTLDuration(cfg.Reward.MaxInterval, app.DefaultRetryPolicy.MaxInterval),
		MaxElapsed:      config.TTLDuration(cfg.Reward.MaxElapsed, app.DefaultRetryPolicy.MaxElapsed),
	}
	engine := app.NewRewardEngine(st.quests, st.users, st.ledger, retry, logger)
	quests := app.NewQuestService(app.Dependencies{
		Quests:  st.quests,
		Users:   st.users,
		Ledger:  st.ledger,
		Scoring: scoring,
		Engine:  engine,
		Images:  imageStore,
		Events:  publishers,
		Logger:  logger,
	})
	users := app.NewUserService(st.users, bcrypt.DefaultCost, logger)
	handler := transport.NewHandler(quests, users, feed, logger)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 30*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 30*time.Second),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", server.Addr).Info("starting photo quest service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newImageStore(ctx context.Context, cfg config.Config) (app.ImageStore, error) {
	if cfg.Images.S3.Bucket != "" {
		return images.NewS3Store(ctx, cfg.Images.S3.Bucket, cfg.Images.S3.Region, cfg.Images.S3.Prefix)
	}
	return images.NewDirStore(cfg.Images.Dir), nil
}
