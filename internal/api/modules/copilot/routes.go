package copilot

import (
	"log"

	"github.com/ethanbaker/api/pkg/api_key"
	svc "github.com/ethanbaker/copilot/internal/copilot"
	"github.com/ethanbaker/copilot/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Register routes for the copilot module. The pipeline service is injected
// here rather than held in module globals.
func RegisterRoutes(g *gin.RouterGroup, cfg *utils.Config, service *svc.Service) {
	controller := &Controller{service: service}

	// Create base group for copilot routes
	group := g.Group("/copilot")

	// Guard routes with an API key when one is configured
	if apiKey := cfg.Get("API_KEY"); apiKey != "" {
		group.Handlers = append(group.Handlers, api_key.APIKeyHeaderHandler(func(key string) bool {
			return apiKey == key
		}))
	} else {
		log.Println("[API]: API_KEY not set, copilot routes are unauthenticated")
	}

	// Session lifecycle routes
	group.POST("/sessions", controller.CreateSession)            // Create a new session
	group.GET("/sessions/:uuid", controller.GetSession)          // Get a session snapshot with captions
	group.DELETE("/sessions/:uuid", controller.EndSession)       // End an existing session
	group.PUT("/sessions/:uuid/resume", controller.PutResume)    // Attach resume text

	// Pipeline routes
	group.POST("/sessions/:uuid/captions", controller.PostCaption) // Ingest a caption fragment
	group.GET("/sessions/:uuid/answers", controller.GetAnswers)    // List generated answers
	group.GET("/sessions/:uuid/memory", controller.GetMemory)      // Debug view of the memory log
	group.GET("/sessions/:uuid/stream", controller.StreamSession)  // Server-push event stream
}
