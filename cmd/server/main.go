package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"matscout/server/internal/config"
	internalhttp "matscout/server/internal/http"
	"matscout/server/internal/mail"
	"matscout/server/internal/maillog"
	"matscout/server/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatalf("JWT_SECRET is required")
	}
	if cfg.Production && cfg.JWTSecret == config.DefaultJWTSecret {
		log.Fatalf("refusing to start in production with the default JWT secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("db migration failed: %v", err)
	}
	st := postgres.NewStore(pool)

	var emailLog maillog.Log
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}()
		emailLog = maillog.NewRedisLog(redisClient)
	} else {
		if cfg.Production {
			log.Fatalf("REDIS_ADDR is required in production (email dedup log)")
		}
		log.Printf("REDIS_ADDR not set, using in-memory email log")
		emailLog = maillog.NewMemoryLog()
	}

	transport, err := mail.NewTransport(cfg.MailProvider, mail.TransportOptions{
		From:         cfg.MailFrom,
		WebhookURL:   cfg.MailWebhookURL,
		WebhookToken: cfg.MailWebhookToken,
		SMTPAddr:     cfg.SMTPAddr,
		SMTPUser:     cfg.SMTPUser,
		SMTPPassword: cfg.SMTPPassword,
	})
	if err != nil {
		log.Fatalf("mail transport init failed: %v", err)
	}
	mailer := mail.NewDispatcher(emailLog, transport, cfg.EmailRetention)

	server := internalhttp.NewServer(cfg, st, mailer)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("matscout http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
