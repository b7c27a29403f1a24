package handler

import (
	"net/http"

	"lennonwall/backend/internal/engagement"
	"lennonwall/backend/internal/feed"
	"lennonwall/backend/internal/localization"
	"lennonwall/backend/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// Handler serves the wall API on top of the engagement store.
type Handler struct {
	Store     *engagement.Store
	Feed      *feed.Selector
	Identity  *IdentityIssuer
	Localizer *localization.Localizer
}

// NewHandler panics if the embedded translations are malformed.
func NewHandler(store *engagement.Store, identity *IdentityIssuer) *Handler {
	registerJSONFieldNames()
	localizer, err := localization.Embedded()
	if err != nil {
		panic(err)
	}
	return &Handler{
		Store:     store,
		Feed:      feed.NewSelector(store),
		Identity:  identity,
		Localizer: localizer,
	}
}

// RouterConfig carries the optional pieces of the router.
type RouterConfig struct {
	// Limiter throttles mutating routes. Nil disables rate limiting.
	Limiter *ratelimit.Pool
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), CORSMiddleware())

	r.GET("/health", h.Health)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	var mutate []gin.HandlerFunc
	if cfg.Limiter != nil {
		mutate = append(mutate, ratelimit.Middleware(cfg.Limiter, h.rateKey))
	}
	withLimit := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, mutate...), handler)
	}

	api := r.Group("/api")
	api.GET("/identity", h.GetAnonID)
	api.GET("/report-reasons", h.ListReportReasons)

	messages := api.Group("/messages")
	messages.GET("", h.ListMessages)
	messages.POST("", withLimit(h.CreateMessage)...)
	messages.GET("/:id", h.GetMessage)
	messages.GET("/:id/like", h.GetLikeStatus)
	messages.POST("/:id/like", withLimit(h.ToggleLike)...)
	messages.POST("/:id/view", h.RecordView)
	messages.POST("/:id/report", withLimit(h.ReportMessage)...)

	return r
}

// Health reports liveness and a summary of the wall.
func (h *Handler) Health(c *gin.Context) {
	st := h.Store.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"messages": st.Messages,
		"visible":  st.Visible,
		"hidden":   st.Hidden,
		"likes":    st.Likes,
		"reports":  st.Reports,
	})
}
