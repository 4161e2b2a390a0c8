package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kmf-ai/server/assets"
	"github.com/kmf-ai/server/internal/repository"
)

type Deps struct {
	Runner   Runner
	Store    repository.QuestionRepository
	APIToken string
	Logger   zerolog.Logger
}

// NewRouter builds the gin engine with every route installed.
func NewRouter(deps Deps) *gin.Engine {
	g := gin.New()
	installMiddleware(g, deps)
	installRoutes(g, deps)
	return g
}

func installMiddleware(g *gin.Engine, deps Deps) {
	g.Use(gin.Recovery())
	g.Use(CORS())
	g.Use(RequestLogger(deps.Logger))
	g.Use(BearerAuth(deps.APIToken))
}

func installRoutes(g *gin.Engine, deps Deps) {
	chat := NewChatHandler(deps.Runner, deps.Logger)
	subjects := NewSubjectsHandler(deps.Store)

	g.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", assets.ChatPage)
	})
	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := g.Group("/api")
	{
		api.POST("/chat", chat.Handle)
		api.GET("/subjects", subjects.List)
	}
}
