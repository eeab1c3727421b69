package main

import (
	"net/http"
	"os"

	"github.com/idilsaglam/lista/internal/config"
	"github.com/idilsaglam/lista/internal/server"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel, os.Stderr)

	repo, err := server.OpenRepo(cfg.DataDir)
	if err != nil {
		log.WithError(err).Fatal("open repo")
	}
	defer repo.Close()

	srv := server.New(repo, log)
	http.HandleFunc("/"+config.CollectionPath, srv.HandleWS)

	log.WithField("addr", cfg.Addr).Info("listad listening")
	if err := http.ListenAndServe(cfg.Addr, nil); err != nil {
		log.WithError(err).Fatal("serve")
	}
}
