package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"driveuploader/config"
	"driveuploader/jobs"
	"driveuploader/routes"
	"driveuploader/services"
	"driveuploader/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env before config.LoadConfig reads the environment.
	loadEnvFile()

	utils.InitLogger()
	config.LoadConfig()
	cfg := config.AppConfig

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := cfg.EnsureUploadFolder(); err != nil {
		utils.LogFatal("Failed to create upload folder", err)
	}

	ctx, cancel := config.CreateContext(10 * time.Second)
	defer cancel()

	accounts, err := services.NewAccountRepository(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		utils.LogFatal("Failed to open account store", err)
	}
	defer func() {
		closeCtx, closeCancel := config.CreateContext(5 * time.Second)
		defer closeCancel()
		if err := accounts.Close(closeCtx); err != nil {
			log.Printf("Failed to close account store: %v", err)
		}
	}()

	container := routes.NewServiceContainer(cfg, accounts)

	if cfg.TempSweepInterval > 0 {
		sweepCtx, stopSweep := context.WithCancel(context.Background())
		defer stopSweep()
		cleaner := jobs.NewTempCleaner(cfg.UploadFolder, services.TempArtifactPatterns(), cfg.TempMaxAge)
		go cleaner.Start(sweepCtx, cfg.TempSweepInterval)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.MaxMultipartMemory = 32 << 20

	if err := routes.SetupRoutesWithContainer(router, container); err != nil {
		utils.LogFatal("Failed to set up routes", err)
	}

	log.Printf("Starting Drive uploader on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

// loadEnvFile loads the first .env found next to or above the working
// directory.
func loadEnvFile() {
	pwd, err := os.Getwd()
	if err != nil {
		log.Printf("Could not get working directory: %v", err)
		return
	}

	envPaths := []string{
		".env",
		"../.env",
		filepath.Join(pwd, ".env"),
		filepath.Join(filepath.Dir(pwd), ".env"),
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		absPath, _ := filepath.Abs(envPath)
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Failed to load .env from %s: %v", absPath, err)
			continue
		}
		log.Printf("Loaded environment variables from: %s", absPath)
		return
	}

	log.Println("No .env file found, using system environment variables")
}
