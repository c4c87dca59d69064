package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retail-billing-app/config"
	"retail-billing-app/database"
	routes "retail-billing-app/internal/app/http"
	"retail-billing-app/internal/infra/identity"
	"retail-billing-app/internal/infra/zoom"
	"retail-billing-app/internal/scheduler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()

	db, err := database.Connect(config.DB_URL)
	if err != nil {
		log.Fatal("database:", err)
	}

	verifier, err := identity.NewOIDCVerifier(context.Background(), config.OIDC_ISSUER, config.OIDC_CLIENT_ID)
	if err != nil {
		log.Fatal("identity provider:", err)
	}

	var zoomClient *zoom.Client
	if config.ZOOM_ACCOUNT_ID != "" {
		zoomClient = zoom.NewClient(config.ZOOM_ACCOUNT_ID, config.ZOOM_CLIENT_ID, config.ZOOM_CLIENT_SECRET)
	}

	cronRunner, err := scheduler.Start(db, config.USAGE_UNIT_PRICE)
	if err != nil {
		log.Fatal("scheduler:", err)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{os.Getenv("CORS_ORIGIN")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, verifier, zoomClient)

	go func() {
		if err := r.Run(":" + config.PORT); err != nil {
			log.Fatal("server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	<-cronRunner.Stop().Done()
}
