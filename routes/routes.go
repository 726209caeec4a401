package routes

import (
	"net/http"
	"time"

	"driveuploader/config"
	"driveuploader/controllers"
	"driveuploader/middleware"
	"driveuploader/services"
	"driveuploader/templates"

	"github.com/gin-gonic/gin"
)

// ServiceContainer holds all services and dependencies
type ServiceContainer struct {
	Config         *config.Config
	Accounts       services.AccountRepository
	StorageFactory services.StorageFactory
	VideoService   services.VideoFetcher
	AuthService    *services.AuthService
	Sessions       *middleware.SessionManager
}

// NewServiceContainer wires the services for cfg. Drive clients are built per
// request by StorageFactory.
func NewServiceContainer(cfg *config.Config, accounts services.AccountRepository) *ServiceContainer {
	storageFactory := services.NewDriveServiceFactory(services.DriveConfig{
		OAuthClientID:     cfg.GoogleOAuthClientID,
		OAuthClientSecret: cfg.GoogleOAuthClientSecret,
		TokenStore:        accounts,
		UploadFolder:      cfg.UploadFolder,
		ChunkSize:         cfg.UploadChunkSize,
		MaxDownloadSize:   cfg.MaxContentLength,
		Timeout:           cfg.ExternalCallTimeout,
	})

	videoService := services.NewVideoService(services.VideoConfig{
		Downloader: cfg.VideoDownloader,
		WorkDir:    cfg.UploadFolder,
		Timeout:    cfg.ExternalCallTimeout,
	})

	authService := services.NewAuthService(services.AuthConfig{
		ClientID:     cfg.GoogleOAuthClientID,
		ClientSecret: cfg.GoogleOAuthClientSecret,
		DiscoveryURL: cfg.GoogleDiscoveryURL,
		Timeout:      cfg.ExternalCallTimeout,
	}, accounts)

	return &ServiceContainer{
		Config:         cfg,
		Accounts:       accounts,
		StorageFactory: storageFactory,
		VideoService:   videoService,
		AuthService:    authService,
		Sessions:       middleware.NewSessionManager(cfg.SessionSecret, cfg.SessionExpiration, cfg.Env == "production"),
	}
}

// SetupRoutesWithContainer loads the templates and registers every route on
// router.
func SetupRoutesWithContainer(router *gin.Engine, container *ServiceContainer) error {
	tmpl, err := templates.Load()
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", http.FS(templates.Static()))

	cfg := container.Config
	pageController := controllers.NewPageController(container.Sessions, container.StorageFactory, controllers.SetupDefaults{
		APIKey:       cfg.GoogleAPIKey,
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
	}, container.AuthService.Enabled())

	router.Use(
		middleware.RequestID(),
		gin.CustomRecovery(pageController.Recover),
		container.Sessions.Middleware(),
		middleware.LoadAccount(container.Accounts),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	RegisterPageRoutes(router, pageController)
	RegisterFileRoutes(router, controllers.NewFileController(container.Sessions, container.StorageFactory, container.VideoService, controllers.UploadSettings{
		MaxContentLength:  cfg.MaxContentLength,
		AllowedExtensions: cfg.AllowedExtensionSet(),
		EnforceExtensions: cfg.EnforceAllowedExtensions,
		ListPageSize:      cfg.ListPageSize,
	}, container.AuthService.Enabled()))
	RegisterAuthRoutes(router, controllers.NewAuthController(container.Sessions, container.AuthService, cfg.GoogleRedirectURL), container.Sessions)

	router.NoRoute(pageController.NotFound)
	return nil
}

func RegisterPageRoutes(router *gin.Engine, pageController *controllers.PageController) {
	router.GET("/", pageController.Index)
	router.GET("/setup", pageController.Setup)
	router.POST("/setup", pageController.SaveSetup)
	router.GET("/uploads", pageController.Uploads)
}
