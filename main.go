package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"storyreel/api"
	"storyreel/audio"
	"storyreel/config"
	"storyreel/images"
	"storyreel/kafka"
	"storyreel/orchestrator"
	"storyreel/render"
	"storyreel/status"
	"storyreel/store"
)

const DefaultAPIPort = ":8080"

func main() {
	kafkaMode := flag.Bool("kafka", false, "Run in Kafka consumer mode (consume render requests from a topic)")
	apiPort := flag.String("port", DefaultAPIPort, "API server port (e.g., :8080)")
	flag.Parse()

	log.SetOutput(os.Stderr)
	log.Println("StoryReel renderer starting...")

	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	ctx := context.Background()

	artifacts, err := store.NewFromEnv(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize artifact store: %v", err)
	}

	var statusStore status.Store
	if os.Getenv("REDIS_ADDR") != "" {
		redisStore, err := status.NewRedisStoreFromEnv(ctx)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		statusStore = redisStore
		log.Println("Render status backed by redis")
	} else {
		statusStore = status.NewMemoryStore()
		log.Println("REDIS_ADDR not set; render status kept in memory")
	}

	fallbackURLs, err := artifacts.ListFallbackImages(ctx)
	if err != nil {
		log.Printf("Warning: could not list fallback images: %v", err)
	}
	log.Printf("Loaded %d fallback image(s)", len(fallbackURLs))

	providers := images.DefaultProviders()
	imageClient := images.NewClient(providers, images.NewAvailabilityRegistry(providers), artifacts, images.NewFallbackSet(fallbackURLs))

	var asr orchestrator.Transcriber
	if client := audio.NewASRClientFromEnv(); client != nil {
		asr = client
		log.Println("Speech recognition enabled for subtitle timing")
	} else {
		log.Println("WHISPER_API_URL not set; subtitle timing will be uniform")
	}

	publisher, err := orchestrator.NewPublisherFromEnv(ctx)
	if err != nil {
		log.Printf("Warning: publisher not initialized: %v", err)
	}

	orc := orchestrator.New(
		statusStore,
		imageClient,
		audio.NewTTSClient(),
		asr,
		artifacts,
		render.NewRunner(config.RenderTimeout),
		publisher,
	)

	if *kafkaMode {
		log.Println("Running in Kafka consumer mode")
		runKafka(orc)
		return
	}

	log.Println("Running in API mode")
	router := api.NewRouter(orc, statusStore)
	log.Printf("API server listening on %s", *apiPort)
	if err := router.Run(*apiPort); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func runKafka(orc *orchestrator.Orchestrator) {
	cfg := kafka.ConfigFromEnv()
	log.Printf("Kafka brokers: %v, topic: %s, group: %s", cfg.Brokers, cfg.Topic, cfg.GroupID)

	consumer, err := kafka.NewConsumer(cfg, orc)
	if err != nil {
		log.Fatalf("Failed to create Kafka consumer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		log.Fatalf("Kafka consumer failed: %v", err)
	}

	<-ctx.Done()
	if err := consumer.Close(); err != nil {
		log.Printf("Error closing consumer: %v", err)
	}
	log.Println("Shutdown complete")
}
