package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/DaudDevs/conect-voucher-market/handlers"
	"github.com/DaudDevs/conect-voucher-market/internal/auth"
	"github.com/DaudDevs/conect-voucher-market/internal/cart"
	"github.com/DaudDevs/conect-voucher-market/internal/consul"
	"github.com/DaudDevs/conect-voucher-market/internal/datastore"
	"github.com/DaudDevs/conect-voucher-market/internal/orders"
	"github.com/DaudDevs/conect-voucher-market/internal/payment"
	"github.com/DaudDevs/conect-voucher-market/internal/products"
	"github.com/DaudDevs/conect-voucher-market/internal/stores/kafka"
	"github.com/DaudDevs/conect-voucher-market/internal/stores/postgres"
	"github.com/DaudDevs/conect-voucher-market/internal/users"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const serviceName = "voucher-market"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", serviceName))

	if err := run(); err != nil {
		slog.Error("service stopped", "ERROR", err.Error())
		os.Exit(1)
	}
}

func run() error {
	db, err := postgres.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}

	privatePEM, err := os.ReadFile(envOr("JWT_PRIVATE_KEY_FILE", "private.pem"))
	if err != nil {
		return err
	}
	publicPEM, err := os.ReadFile(envOr("JWT_PUBLIC_KEY_FILE", "pubkey.pem"))
	if err != nil {
		return err
	}
	keys, err := auth.NewKeys(privatePEM, publicPEM)
	if err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: envOr("REDIS_ADDR", "localhost:6379"),
	})
	defer redisClient.Close()
	cartStore := cart.NewRedisStore(redisClient)

	// The kafka producer is optional so the service still runs in
	// environments without a broker.
	var kafkaConf *kafka.Conf
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafkaConf, err = kafka.NewConf(strings.Split(brokers, ","))
		if err != nil {
			return err
		}
		defer kafkaConf.Close()
	} else {
		slog.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	uConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	pConf, err := products.NewConf(db)
	if err != nil {
		return err
	}
	oConf, err := orders.NewConf(db, kafkaConf)
	if err != nil {
		return err
	}
	ds, err := datastore.NewStore(db)
	if err != nil {
		return err
	}

	h := handlers.NewHandler(uConf, pConf, oConf, ds, cartStore, payment.NewSimulatedQRIS(), keys)
	prefix := envOr("SERVICE_ENDPOINT_PREFIX", "/api/v1")
	r := handlers.API(prefix, keys, h)

	host := envOr("APP_HOST", "0.0.0.0")
	port, err := strconv.Atoi(envOr("APP_PORT", "8080"))
	if err != nil {
		return err
	}

	// Consul registration is optional for local development.
	if consulAddr := os.Getenv("CONSUL_ADDR"); consulAddr != "" {
		client, err := consul.NewClient(consulAddr)
		if err != nil {
			return err
		}
		advertise := envOr("SERVICE_ADDRESS", host)
		if err := consul.RegisterService(client, serviceName, advertise, port); err != nil {
			return err
		}
		defer func() {
			if err := consul.DeregisterService(client, serviceName, advertise, port); err != nil {
				slog.Error("consul deregistration failed", "ERROR", err.Error())
			}
		}()
	}

	server := &http.Server{
		Addr:         host + ":" + strconv.Itoa(port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-shutdown.Done():
		slog.Info("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return server.Close()
		}
	}

	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
