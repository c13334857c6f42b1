// Command identityd runs the Identity Service: it owns the Credential
// Store, Token Cache, Password Hasher, Token Codec and Mail Dispatcher,
// and is reachable only over the broker RPC surface.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/cruxauth/authsvc/broker"
	"github.com/cruxauth/authsvc/cache"
	"github.com/cruxauth/authsvc/config"
	"github.com/cruxauth/authsvc/identity"
	"github.com/cruxauth/authsvc/internal/audit"
	"github.com/cruxauth/authsvc/mail"
	"github.com/cruxauth/authsvc/metrics"
	otelexport "github.com/cruxauth/authsvc/metrics/export/otel"
	"github.com/cruxauth/authsvc/password"
	"github.com/cruxauth/authsvc/store"
	"github.com/cruxauth/authsvc/token"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("identityd: config: %v", err)
	}

	credentialStore, err := store.NewPostgresStore(ctx, cfg.Store.DSN())
	if err != nil {
		log.Fatalf("identityd: store: %v", err)
	}
	defer credentialStore.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Addr(),
		Password: cfg.Cache.Password,
	})
	tokenCache := cache.NewRedisCache(redisClient)

	codec, err := token.NewCodec(token.Config{
		SigningMethod: token.MethodHS256,
		PrivateKey:    []byte(cfg.Codec.JWTSecret),
		AccessTTL:     12 * time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		log.Fatalf("identityd: codec: %v", err)
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		log.Fatalf("identityd: hasher: %v", err)
	}

	mailDispatcher := mail.NewDispatcher(mail.Config{
		Host:    cfg.Mail.Host,
		Port:    cfg.Mail.Port,
		User:    cfg.Mail.User,
		Pass:    cfg.Mail.Pass,
		URLHost: cfg.Mail.URLHost,
		URLPort: cfg.Mail.URLPort,
	}, func(err error) {
		log.Printf("identityd: mail dispatch failed: %v", err)
	})

	auditDispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    true,
		BufferSize: 256,
	}, audit.NoOpSink{})
	defer auditDispatcher.Close()

	svcMetrics := metrics.New(metrics.Config{Enabled: true, EnableLatencyHistograms: true})

	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer meterProvider.Shutdown(ctx)
	meter := meterProvider.Meter("authsvc.identityd")
	otelExporter, err := otelexport.NewExporter(meter, svcMetrics)
	if err != nil {
		log.Fatalf("identityd: otel exporter: %v", err)
	}
	defer otelExporter.Close()
	go scrapeMetricsForever(ctx, reader)

	service := identity.New(credentialStore, tokenCache, codec, hasher, mailDispatcher, auditDispatcher, identity.Config{Metrics: svcMetrics})

	consumer, err := broker.NewConsumer(broker.Config{
		User:       cfg.Broker.User,
		Pass:       cfg.Broker.Pass,
		Host:       cfg.Broker.Host,
		Queue:      cfg.Broker.Queue,
		CertPath:   cfg.Broker.CertPath,
		KeyPath:    cfg.Broker.KeyPath,
		Passphrase: cfg.Broker.Passphrase,
		CAPath:     cfg.Broker.CAPath,
	}, service)
	if err != nil {
		log.Fatalf("identityd: broker: %v", err)
	}
	defer consumer.Close()

	log.Printf("identityd: consuming from queue %q", cfg.Broker.Queue)
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("identityd: consumer stopped: %v", err)
	}
	log.Println("identityd: shutting down")
}

// scrapeMetricsForever periodically pulls the manual reader so its
// registered observable instruments actually get invoked; a pull
// exporter with nothing ever reading it never calls the callback in
// metrics/export/otel, so this keeps the instruments live even without
// an OTLP endpoint configured.
func scrapeMetricsForever(ctx context.Context, reader sdkmetric.Reader) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var rm metricdata.ResourceMetrics
			if err := reader.Collect(ctx, &rm); err != nil {
				log.Printf("identityd: metrics collect: %v", err)
			}
		}
	}
}
