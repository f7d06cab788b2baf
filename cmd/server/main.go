package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"

	"github.com/nik-ti/image-finder/internal/adapter/api"
	"github.com/nik-ti/image-finder/internal/adapter/client"
	"github.com/nik-ti/image-finder/internal/adapter/store"
	"github.com/nik-ti/image-finder/internal/config"
	"github.com/nik-ti/image-finder/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
	ctx := context.Background()
	cfg := config.Load()

	// Redis for the result cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	// MinIO for processed image storage
	imageStorage, err := store.NewMinioStorage(ctx,
		cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
		cfg.MinioBucket, cfg.PublicBaseURL, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("failed to init minio storage: %v", err)
	}

	// Gemini for vision judgment
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.GoogleCloudProject,
		Location: cfg.GoogleCloudLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		log.Fatalf("failed to init genai client: %v", err)
	}

	judge := client.NewGeminiJudgeFromClient(genaiClient, cfg.VisionModel)
	searcher := client.NewPerplexitySearcher(cfg.PerplexityAPIKey, cfg.PerplexityBaseURL, cfg.PerplexityModel)
	scraper := client.NewPageScraper()
	fetcher := client.NewHTTPFetcher(10 * time.Second)
	encoder := client.NewEncoder(0, 0)

	resultCache := store.NewRedisCache(rdb, cfg.CacheTTL)

	// Inject the adapters into the pipeline
	cacheManager := usecase.NewCacheManager(resultCache, fetcher)
	collector := usecase.NewCollector(scraper, searcher)
	engine := usecase.NewEngine(judge)
	processor := usecase.NewProcessor(fetcher, encoder, imageStorage)
	orchestrator := usecase.NewOrchestrator(cacheManager, collector, engine, processor, cfg.DefaultFallbackImage)

	// Out-of-band retention sweep for stored images
	janitor := usecase.NewJanitor(imageStorage,
		time.Duration(cfg.RetentionDays)*24*time.Hour, 24*time.Hour)
	go janitor.Run(ctx)

	// Initialize API Layer (Delivery Layer)
	app := fiber.New(fiber.Config{
		AppName: "Image Finder API",
	})

	handler := api.NewFindHandler(orchestrator)
	api.SetupRouter(app, handler)

	log.Printf("Image Finder running on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
