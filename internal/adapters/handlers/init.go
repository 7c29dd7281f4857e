package handlers

import (
	"net/http"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"

	"github.com/gin-gonic/gin"
)

// Handler - структура для обработчиков HTTP-запросов
type Handler struct {
	usecase interfaces.Usecases
	logger  *logging.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(usecase interfaces.Usecases, logger *logging.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		logger:  logger.WithPrefix("HANDLER"),
	}
}

// ProvideRouter настраивает и возвращает HTTP-роутер локального API
func ProvideRouter(h *Handler, cfg *config.AppConfig) http.Handler {
	gin.SetMode(cfg.GinMode)

	router := gin.Default()

	// Logger Middleware
	router.Use(LoggingMiddleware(h.logger))

	router.GET("/healthz", h.Health)

	// Группа API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", h.GetStatus)
		v1.GET("/history/current", h.GetCurrentHistory)
		v1.GET("/loops", h.GetLoops)
		v1.POST("/requests", h.SubmitRequest)
	}

	return router
}
