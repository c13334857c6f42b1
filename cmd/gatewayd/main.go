// Command gatewayd runs the Gateway Router: it terminates HTTP, enforces
// the Admission Guard, and fans every request out to either the broker RPC
// surface (auth endpoints) or the vision gRPC backend.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cruxauth/authsvc/broker"
	"github.com/cruxauth/authsvc/config"
	"github.com/cruxauth/authsvc/gateway"
	"github.com/cruxauth/authsvc/metrics"
	"github.com/cruxauth/authsvc/vision"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("gatewayd: config: %v", err)
	}

	publisher, err := broker.NewPublisher(broker.Config{
		User:       cfg.Broker.User,
		Pass:       cfg.Broker.Pass,
		Host:       cfg.Broker.Host,
		Queue:      cfg.Broker.Queue,
		CertPath:   cfg.Broker.CertPath,
		KeyPath:    cfg.Broker.KeyPath,
		Passphrase: cfg.Broker.Passphrase,
		CAPath:     cfg.Broker.CAPath,
	})
	if err != nil {
		log.Fatalf("gatewayd: broker: %v", err)
	}
	defer publisher.Close()

	visionClient, err := vision.Dial(cfg.Vision.Addr())
	if err != nil {
		log.Fatalf("gatewayd: vision: %v", err)
	}
	defer visionClient.Close()

	gatewayMetrics := metrics.New(metrics.Config{Enabled: true})

	identityClient := gateway.NewIdentityClient(publisher)
	limiter := gateway.NewRateLimiter(3, time.Hour)
	guard := gateway.NewAdmissionGuard(identityClient, limiter).WithMetrics(gatewayMetrics)
	router := gateway.NewRouter(identityClient, visionClient, guard)

	addr := ":8080"
	if v := os.Getenv("GATEWAY_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Mux(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("gatewayd: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("gatewayd: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("gatewayd: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("gatewayd: shutdown: %v", err)
	}
}
