package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/antoniostano/empath/internal/chat"
	"github.com/antoniostano/empath/internal/config"
	"github.com/antoniostano/empath/internal/httpapi"
	"github.com/antoniostano/empath/internal/llm"
	"github.com/antoniostano/empath/internal/observability"
	"github.com/antoniostano/empath/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := session.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("session store init failed: %v", err)
	}
	defer store.Close()

	model, err := llm.NewModel(ctx, llm.Config{
		Mode:      cfg.LLMProvider,
		APIKey:    cfg.GeminiAPIKey,
		ModelName: cfg.GeminiModel,
	})
	if err != nil {
		log.Fatalf("llm provider init failed: %v", err)
	}
	if cfg.UsesMockModel() {
		observability.Logger().Warn("llm provider is the offline mock; chat replies are canned echoes",
			"provider", model.Name(),
			"env", cfg.Env,
			"hint", "set GEMINI_API_KEY, or APP_ENV=production to refuse starting without one",
		)
	} else {
		log.Printf("llm provider: %s (%s)", model.Name(), cfg.GeminiModel)
	}

	processor := chat.NewProcessor(store, model, metrics, chat.Options{
		DefaultSessionID: cfg.DefaultSessionID,
		Temperature:      cfg.Temperature,
		Timeout:          cfg.ChatTimeout,
		SystemPrompt:     chat.SystemPrompt,
		WelcomeMessage:   chat.WelcomeMessage,
	})

	api := httpapi.New(cfg, processor, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
