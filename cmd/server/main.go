// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"bacay-service/internal/auth"
	"bacay-service/internal/cache"
	"bacay-service/internal/handlers"
	"bacay-service/internal/middleware"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Redis is optional: without it the game runs, hand results just are
	// not recorded for the historian.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, hand results will not be recorded: %v", err)
	}

	srv := handlers.NewServer(logger)

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ba Cay server is running"))
	})

	mux.Handle("/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WSHandler(logger, srv),
	)))

	addr := ":5000"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
