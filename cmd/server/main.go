package main

import (
	"net/http"
	"os"

	"itemcatalog/internal/config"
	"itemcatalog/internal/db"
	"itemcatalog/internal/http/router"
	"itemcatalog/internal/oauth"
	"itemcatalog/internal/security"

	"github.com/charmbracelet/log"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	cfg, err := config.Load("config/app.yaml")
	if err != nil {
		logger.Warn("failed to load config, using defaults", "err", err)
		cfg = &config.Config{
			Port:          "8080",
			DBDriver:      "sqlite3",
			DBDSN:         "itemcatalog.db",
			Secret:        "change-me-in-production",
			ClientSecrets: "config/client_secret.json",
		}
	}

	secrets, err := config.LoadClientSecrets(cfg.ClientSecrets)
	if err != nil {
		logger.Fatal("failed to load client secrets", "path", cfg.ClientSecrets, "err", err)
	}

	database, err := db.Init(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal("failed to initialize database", "err", err)
	}
	defer database.Close()

	sessions := security.NewSessionStore(cfg.Secret)

	google := oauth.NewClient(oauth.Config{
		ClientID:     secrets.Web.ClientID,
		ClientSecret: secrets.Web.ClientSecret,
	})

	r := router.Setup(database, sessions, google, secrets.Web.ClientID, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	logger.Info("starting server", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}
