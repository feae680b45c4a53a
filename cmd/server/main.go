package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	webAdapter "proposal-studio/internal/adapters/web"
	"proposal-studio/internal/ai"
	"proposal-studio/internal/app"
	"proposal-studio/internal/core"
	"proposal-studio/internal/db"
	"proposal-studio/internal/mail"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	proposalService := core.NewProposalService(pool)
	catalogService := core.NewCatalogService(pool)
	clientService := core.NewClientService(pool)
	userService := core.NewUserService(pool)
	activityService := core.NewActivityService(pool)

	var mailer core.Mailer
	if host := os.Getenv("SMTP_HOST"); host != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     host,
			Port:     envOr("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envOr("SMTP_FROM", "proposals@localhost"),
		})
	} else {
		log.Println("Warning: SMTP_HOST is not set; outgoing mail goes to the log")
		mailer = mail.LogMailer{}
	}

	var agent *ai.Agent
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		agent = ai.NewAgent(apiKey)
	} else {
		log.Println("Warning: OPENAI_API_KEY is not set; content suggestions disabled")
	}

	quietPeriod := core.DefaultQuietPeriod
	if v := os.Getenv("AUTOSAVE_QUIET_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid AUTOSAVE_QUIET_PERIOD %q: %v", v, err)
		}
		quietPeriod = d
	}

	svc := app.NewAppService(pool, proposalService, catalogService, clientService,
		userService, activityService, mailer, agent, quietPeriod)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	handler := webAdapter.NewHandler(svc, os.Getenv("ALLOWED_ORIGINS"), jwtSecret)

	port := envOr("SERVER_PORT", "8080")
	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
