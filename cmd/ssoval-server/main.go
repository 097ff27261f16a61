package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saml2validator/ssoval/internal/bootstrap"
	"github.com/saml2validator/ssoval/internal/httpapi"
	"github.com/saml2validator/ssoval/internal/spiffe"
)

func main() {
	deps, err := bootstrap.Bootstrap()
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	cfg := deps.Config

	server := httpapi.New(httpapi.Options{
		CORSOrigins:  cfg.CORSOrigins,
		Validation:   deps.ValidationConfig,
		KeySet:       deps.KeySet,
		Issuer:       deps.SessionIssuer,
		SentRecorder: deps.SentRecorder,
		IdPSSOURL:    cfg.IdPSSOURL,
		TraceHub:     deps.TraceHub,
	})

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	spiffeCfg := spiffe.Config{
		SocketPath:  cfg.SPIFFESocketPath,
		TrustDomain: cfg.SPIFFETrustDomain,
		AllowedIDs:  cfg.SPIFFEAllowedIDs,
	}
	var mtlsServer *spiffe.Server
	if spiffeCfg.Enabled() {
		mtlsServer, err = spiffe.NewServer(context.Background(), spiffeCfg, cfg.MTLSListenAddr, server.Router())
		if err != nil {
			log.Fatalf("Failed to start SPIFFE mTLS listener: %v", err)
		}
		go func() {
			log.Printf("mTLS server starting on %s", cfg.MTLSListenAddr)
			if err := mtlsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("mTLS server failed: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if mtlsServer != nil {
		if err := mtlsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("mTLS server shutdown error: %v", err)
		}
	}
	if err := deps.Close(); err != nil {
		log.Printf("Store close error: %v", err)
	}
	log.Println("Server stopped")
}
