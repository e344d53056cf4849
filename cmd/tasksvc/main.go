package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucasvital/todocomplete/internal/config"
	"github.com/lucasvital/todocomplete/internal/tasks"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.LoadTasks()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	timeout := cfg.Timeout.Duration()
	client, err := mongo.Connect(context.Background(),
		options.Client().ApplyURI(cfg.MongoURI).SetServerSelectionTimeout(timeout))
	if err != nil {
		log.Fatalf("MongoDB connection error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	err = client.Ping(ctx, nil)
	cancel()
	if err != nil {
		log.Fatalf("MongoDB connection error: %v", err)
	}
	log.Printf("Connected to MongoDB")

	r := gin.Default()
	tasks.NewHandler(tasks.NewMongoRepo(client.Database(cfg.Database))).Register(r)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Server is running on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	if err := client.Disconnect(ctx); err != nil {
		log.Printf("MongoDB disconnect: %v", err)
	}
}
