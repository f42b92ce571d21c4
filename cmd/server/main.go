// Package main is the entry point for the recipe-box server.
//
// Its job is limited to reading configuration, creating the logger, seeding
// reference data and starting the server. All other logic lives under
// internal/.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/server"
	"github.com/sakif/recipe-box/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/recipebox.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	mediaDir := "data/media"
	if envMedia := os.Getenv("MEDIA_DIR"); envMedia != "" {
		mediaDir = envMedia
	}

	// JWT_SECRET must be a long random string:
	//   JWT_SECRET=$(openssl rand -hex 32)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	var corsOrigins []string
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				corsOrigins = append(corsOrigins, origin)
			}
		}
	}

	rateLimit := 0
	if raw := os.Getenv("RATE_LIMIT"); raw != "" {
		var err error
		rateLimit, err = strconv.Atoi(raw)
		if err != nil {
			logger.Error("invalid RATE_LIMIT value", slog.String("value", raw))
			os.Exit(1)
		}
	}

	cfg := server.Config{
		Port:        port,
		DBPath:      dbPath,
		MediaDir:    mediaDir,
		JWTSecret:   jwtSecret,
		CORSOrigins: corsOrigins,
		RateLimit:   rateLimit,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if seedFile := os.Getenv("SEED_FILE"); seedFile != "" {
		if err := seedReferenceData(srv.Catalog(), seedFile, logger); err != nil {
			logger.Error("failed to seed reference data",
				slog.String("file", seedFile),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// seedFile is the JSON shape SEED_FILE points at:
//
//	{
//	  "tags": [{"name": "breakfast", "color": "#E26C2D", "slug": "breakfast"}],
//	  "ingredients": [{"name": "flour", "measurement_unit": "g"}]
//	}
type seedFile struct {
	Tags        []model.Tag        `json:"tags"`
	Ingredients []model.Ingredient `json:"ingredients"`
}

// seedReferenceData loads tags and ingredients at startup. Rows that already
// exist are skipped, so the same file can ship with every release.
func seedReferenceData(catalog *service.CatalogService, path string, logger *slog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return err
	}

	ctx := context.Background()
	for i := range seed.Tags {
		if err := catalog.SeedTag(ctx, &seed.Tags[i]); err != nil {
			return err
		}
	}
	for i := range seed.Ingredients {
		if err := catalog.SeedIngredient(ctx, &seed.Ingredients[i]); err != nil {
			return err
		}
	}

	logger.Info("reference data seeded",
		slog.Int("tags", len(seed.Tags)),
		slog.Int("ingredients", len(seed.Ingredients)),
	)
	return nil
}
