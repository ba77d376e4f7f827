package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/woozymasta/bimgeo/internal/config"
	"github.com/woozymasta/bimgeo/internal/logger"
	"github.com/woozymasta/bimgeo/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"   env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"     env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Document   string `short:"d" long:"document" env:"DOCUMENT"       description:"Building model document to open"`
	Port       int    `short:"p" long:"port"     env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	Autosave   bool   `short:"s" long:"autosave" env:"AUTOSAVE"       description:"Write the document back after each successful change"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", opts.ConfigFile).Msg("Configuration file not found, using defaults")
		cfg = config.Default()
	} else if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.Document != "" {
		cfg.Document = opts.Document
	}
	if opts.Autosave {
		cfg.Autosave = true
	}
	if cfg.Addr == "" {
		cfg.Addr = opts.Addr
	}
	if cfg.Port <= 0 {
		cfg.Port = opts.Port
	}

	srvCtx := server.NewServerContext(cfg)

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", srvCtx.HandleCommand)
	mux.HandleFunc("/api/georeference", srvCtx.HandleInfo)
	mux.HandleFunc("/api/site.geojson", srvCtx.HandleSiteGeoJSON)

	handler := server.RequestLogger(mux)

	listenAddr := fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("document", cfg.Document).
		Bool("autosave", cfg.Autosave).
		Bool("projector", cfg.Projector.IsEnabled()).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
