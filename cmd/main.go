package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/soralab/line-assistant-bridge/internal/assistant"
	"github.com/soralab/line-assistant-bridge/internal/bot"
	"github.com/soralab/line-assistant-bridge/internal/line"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	botName := os.Getenv("BOT_NAME")
	if botName == "" {
		botName = "Sora"
	}
	botTone := os.Getenv("BOT_TONE")

	// --- Store ---
	var store bot.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			log.Fatalf("db open error: %v", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("db ping error: %v", err)
		}
		store = bot.NewRepo(db)
	} else {
		log.Println("DATABASE_URL not set, conversation state is in-memory only")
		store = bot.NewMemStore()
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Line-Signature"},
	}))

	// --- Bot module wiring ---
	acts := bot.NewActivations()
	aiClient := assistant.NewOpenAIClient()
	botService := bot.NewService(store, aiClient, acts, botName, botTone)
	outbound := line.NewLineOutbound()
	lineHandler := line.NewHandler(botService, outbound, acts)

	line.RegisterRoutes(r, lineHandler)

	// --- health ---
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	log.Printf("listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
