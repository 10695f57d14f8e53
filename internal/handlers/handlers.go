package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kebisafe/kebisafe/internal/config"
	"github.com/kebisafe/kebisafe/internal/middleware"
	"github.com/kebisafe/kebisafe/internal/repository"
	"github.com/kebisafe/kebisafe/internal/security"
	"github.com/kebisafe/kebisafe/internal/service"
	"github.com/kebisafe/kebisafe/internal/storage"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	db       *pgxpool.Pool
	cache    *redis.Client
	blobs    storage.BlobStore
	media    *repository.MediaRepository
	sessions *security.Sessions
	tokens   security.TokenCache
	ingestor *service.Ingestor
	library  *service.Library
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, blobs storage.BlobStore, cfg *config.AppConfig) HandlerSet {
	mediaRepo := repository.NewMediaRepository(db)
	sessions := security.NewSessions(cache, cfg.Security.SessionSecret, cfg.Security.SessionTTL)
	tokens := security.NewRedisTokenCache(cache, cfg.Security.CSRFTTL)
	ingestor := service.NewIngestor(mediaRepo, blobs, log)
	library := service.NewLibrary(mediaRepo, blobs, tokens, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		db:       db,
		cache:    cache,
		blobs:    blobs,
		media:    mediaRepo,
		sessions: sessions,
		tokens:   tokens,
		ingestor: ingestor,
		library:  library,
	}
}

func (h HandlerSet) Register(engine *gin.Engine) {
	session := middleware.Session(h.sessions)

	api := engine.Group("/api", session)
	api.GET("/healthz", h.Health)

	v1 := api.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
		auth.GET("/csrf", h.CSRFToken)

		media := v1.Group("/media")
		media.POST("", h.UploadMedia)
		media.GET("", h.ListMedia)
		media.GET("/:hashID", h.GetMedia)
		media.PATCH("/:hashID", h.PatchMedia)
		media.DELETE("/:hashID", h.DeleteMedia)
	}

	// Permalinks live outside /api; these are the URLs people share.
	files := engine.Group("/media", session)
	files.GET("/thumbnails/:filename", h.ServeThumbnail)
	files.GET("/:filename", h.ServeOriginal)
}

// caller assembles the request identity the access rules run on: session
// from the middleware, anti-forgery token from header or form field.
func (h HandlerSet) caller(c *gin.Context) service.Caller {
	sessionID := c.GetString(middleware.SessionIDKey)

	token := c.GetHeader("X-CSRF-Token")
	if token == "" {
		token = c.PostForm("csrf_token")
	}

	return service.Caller{
		Owner:     sessionID != "",
		SessionID: sessionID,
		CSRFToken: token,
	}
}
