package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cybershield/api"
	"cybershield/archive"
	"cybershield/config"
	"cybershield/dedupe"
	"cybershield/logging"
	"cybershield/media"
	"cybershield/pipeline"
	"cybershield/scoring"
	"cybershield/shared/kafka"
	"cybershield/storage"
	"cybershield/store"
	"cybershield/types"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	logging.Init(config.GetEnvBool("VERBOSE"))
	logger := logging.WithComponent("main")

	uploads, err := storage.New(config.GetEnvOrDefault("UPLOAD_DIR", config.DefaultUploadDir))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize upload storage")
	}

	var reports store.ReportStore
	redisStore, err := store.NewRedisStore(store.RedisConfigFromEnv())
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, falling back to in-memory report store")
		reports = store.NewMemoryStore()
	} else {
		defer redisStore.Close()
		reports = redisStore
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	decomposer := media.NewDecomposer()
	remote := scoring.NewRemoteClassifier()
	heuristic := scoring.NewHeuristicScorer()
	resolver := scoring.DefaultChain(remote, heuristic)
	faces := scoring.NewFaceDetector()
	audio := scoring.NewAudioScorer()
	archiver := archive.NewFromEnv(ctx)
	dupes := dedupe.NewFromEnv()
	defer dupes.Close()

	runner := pipeline.NewRunner(decomposer, resolver, heuristic, faces, audio, uploads, reports, archiver)

	// When brokers are configured, video runs go through Kafka so workers can
	// scale independently of the API. Otherwise runs execute in-process.
	var producer *kafka.Producer
	if brokers := kafka.Brokers(); len(brokers) > 0 {
		producer, err = kafka.NewProducer(brokers, kafka.Topic())
		if err != nil {
			logger.Warn().Err(err).Msg("kafka producer init failed, running analyses in-process")
			producer = nil
		} else {
			defer producer.Close()
			if err := startWorker(ctx, brokers, runner); err != nil {
				logger.Fatal().Err(err).Msg("failed to start analysis worker")
			}
		}
	}

	auth := api.NewAuthController()
	analyze := api.NewAnalyzeController(runner, uploads, resolver, heuristic, faces, audio, decomposer, producer, dupes)
	history := api.NewHistoryController(reports, auth)
	router := api.NewRouter(auth, analyze, history)

	addr := ":" + config.GetEnvOrDefault("PORT", "8080")
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Info().Str("addr", addr).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm
	logger.Info().Msg("received termination signal")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
}

// startWorker consumes queued analysis requests and drives the pipeline.
func startWorker(ctx context.Context, brokers []string, runner *pipeline.Runner) error {
	handler := &kafka.TypedMessageHandler[types.AnalyzeRequest]{
		Validate: func(msg *types.AnalyzeRequest) bool {
			return msg.RunID != "" && msg.Path != ""
		},
		Process: func(ctx context.Context, msg *types.AnalyzeRequest) error {
			run := pipeline.RunFromRequest(*msg)
			return runner.Run(ctx, run)
		},
		AlwaysMark: true,
	}

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: brokers,
		Topic:   kafka.Topic(),
		GroupID: kafka.GroupID(),
		Handler: handler,
	})
	if err != nil {
		return err
	}
	return consumer.Start(ctx)
}
