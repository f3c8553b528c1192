package api

import (
	"context"
	"log"
	"strings"
	"time"

	api_utils "github.com/ethanbaker/api/pkg/utils"
	"github.com/ethanbaker/copilot/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	svc "github.com/ethanbaker/copilot/internal/copilot"
	"github.com/ethanbaker/copilot/internal/retention"
	"github.com/ethanbaker/copilot/pkg/broadcast"
	"github.com/ethanbaker/copilot/pkg/generator"
	"github.com/ethanbaker/copilot/pkg/knowledge"
	"github.com/ethanbaker/copilot/pkg/memory"
	"github.com/ethanbaker/copilot/pkg/resume"
	"github.com/ethanbaker/copilot/pkg/session"

	copilot_module "github.com/ethanbaker/copilot/internal/api/modules/copilot"
	health_module "github.com/ethanbaker/copilot/internal/api/modules/health"
)

func Start(cfg *utils.Config) {
	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "8080")

	// Build the pipeline service and its collaborators
	service, sweeper, err := buildService(cfg)
	if err != nil {
		log.Fatal("[API-MAIN]: Failed to initialize service: ", err)
	}

	// Add app level settings/routes
	engine := gin.Default()
	engine.NoRoute(api_utils.NoRouteHandler)

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)
	copilot_module.RegisterRoutes(baseGroup, cfg, service)

	// Start the retention sweep
	if err := sweeper.Start(); err != nil {
		log.Fatal("[API-MAIN]: Failed to start retention sweeper: ", err)
	}

	// Then after performing initial setup, start the server
	if err := engine.Run(":" + port); err != nil {
		log.Fatal("[API-MAIN]: Failed to start server: ", err)
	}
}

// buildService constructs the pipeline service from configuration. With no
// DATABASE_URL the stores fall back to their in-memory implementations,
// which is enough for local development.
func buildService(cfg *utils.Config) (*svc.Service, *retention.Sweeper, error) {
	var (
		sessions session.Store
		memories memory.Store
		resumes  resume.Store
		snippets knowledge.Store
		err      error
	)

	if databaseURL := cfg.Get("DATABASE_URL"); databaseURL != "" {
		if sessions, err = session.NewMySqlStore(databaseURL); err != nil {
			return nil, nil, err
		}
		if memories, err = memory.NewMySqlStore(databaseURL); err != nil {
			return nil, nil, err
		}
		if resumes, err = resume.NewMySqlStore(databaseURL); err != nil {
			return nil, nil, err
		}
		if snippets, err = knowledge.NewMySqlStore(databaseURL); err != nil {
			return nil, nil, err
		}
	} else {
		log.Println("[API-MAIN]: DATABASE_URL not set, using in-memory stores")
		sessions = session.NewInMemoryStore()
		memories = memory.NewInMemoryStore()
		resumes = resume.NewInMemoryStore()
		snippets = knowledge.NewInMemoryStore()
	}

	// Seed the knowledge base when a snippets file is configured
	if path := cfg.Get("KNOWLEDGE_FILE"); path != "" {
		seeds, err := knowledge.LoadSnippetsFile(path)
		if err != nil {
			return nil, nil, err
		}
		for _, seed := range seeds {
			if err := snippets.Add(context.Background(), seed); err != nil {
				return nil, nil, err
			}
		}
		log.Printf("[API-MAIN]: Seeded %d knowledge snippets", len(seeds))
	}

	provider := generator.NewOpenAIProvider(
		cfg.Get("OPENAI_API_KEY"),
		cfg.GetWithDefault("OPENAI_MODEL", "gpt-4o-mini"),
	)

	// An operator-supplied prompt file overrides the built-in system prompt
	systemPrompt := generator.DefaultSystemPrompt
	if path := cfg.Get("SYSTEM_PROMPT_FILE"); path != "" {
		systemPrompt = utils.LoadPromptWithFallback(path, generator.DefaultSystemPrompt)
	}

	gen := generator.New(provider, memories, resumes, snippets, &generator.Options{
		ContextSize:  cfg.GetIntWithDefault("MEMORY_CONTEXT_SIZE", 10),
		SnippetLimit: cfg.GetIntWithDefault("KNOWLEDGE_SNIPPET_LIMIT", 3),
		SystemPrompt: systemPrompt,
	})

	heartbeat := time.Duration(cfg.GetIntWithDefault("HEARTBEAT_SECONDS", 30)) * time.Second
	hub := broadcast.NewHub(heartbeat)

	service := svc.NewService(sessions, memories, resumes, gen, hub, &svc.Options{
		GenerationTimeout: time.Duration(cfg.GetIntWithDefault("GENERATION_TIMEOUT_SECONDS", 30)) * time.Second,
	})
	sweeper := retention.NewSweeper(service,
		cfg.GetIntWithDefault("RETENTION_DAYS", retention.DefaultRetentionDays),
		cfg.Get("RETENTION_SCHEDULE"),
	)

	return service, sweeper, nil
}
