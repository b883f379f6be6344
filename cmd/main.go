package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/logger"
	"github.com/joho/godotenv"

	"secretsanta/internal/handlers"
	"secretsanta/internal/services"
	"secretsanta/internal/storage"
	"secretsanta/internal/telegram"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration & logger. A missing .env file is fine.
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	defer logger.Init("secretsanta", config.Verbose, false, os.Stdout).Close()
	if config.WebhookURL != "" && config.WebhookSecret == "" {
		return errors.New("config error: WEBHOOK_SECRET is required when WEBHOOK_URL is set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Optional durable storage
	var (
		roomRepo services.RoomRepository
		wishRepo services.WishRepository
	)
	if config.BadgerPath != "" {
		store, err := storage.Open(config.BadgerPath)
		if err != nil {
			return err
		}
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = store.Close()
		}()
		roomRepo, wishRepo = store, store
	}

	// 3. Telegram client
	api, err := tgbotapi.NewBotAPIWithClient(config.BotToken, tgbotapi.APIEndpoint,
		&http.Client{Timeout: config.SendTimeout + 60*time.Second})
	if err != nil {
		return fmt.Errorf("telegram login failed: %w", err)
	}
	messenger := telegram.NewMessenger(api)

	// 4. Services
	wishService := services.NewWishService(wishRepo)
	dispatcher := services.NewDispatcher(messenger, wishService, config.DispatchConcurrency, config.SendTimeout)
	roomService := services.NewRoomService(dispatcher, roomRepo)
	if err := wishService.Restore(ctx); err != nil {
		return err
	}
	if err := roomService.Restore(ctx); err != nil {
		return err
	}

	// 5. Handlers
	botHandler := handlers.NewBotHandler(roomService, wishService, messenger)
	bot := telegram.NewBot(api, botHandler)

	var updates handlers.UpdateReceiver
	if config.WebhookURL != "" {
		updates = bot
	}
	httpHandler := handlers.NewHTTPHandler(roomService, wishService, updates, config.WebhookSecret)

	if !config.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	httpHandler.RegisterRoutes(r)
	server := &http.Server{Addr: config.HTTPAddr, Handler: r}

	// 6. Background janitor, only when a TTL is configured
	if config.RoomTTL > 0 {
		go roomService.RunJanitor(ctx, config.JanitorInterval, config.RoomTTL)
		logger.Infof("Evicting rooms idle for more than %s", config.RoomTTL)
	}

	errChan := make(chan error, 2)
	go func() {
		logger.Infof("HTTP server starting on %s", config.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Update intake
	if config.WebhookURL != "" {
		if err := bot.SetWebhook(config.WebhookURL, config.WebhookSecret); err != nil {
			return err
		}
	} else {
		go func() {
			if err := bot.Poll(ctx); err != nil {
				errChan <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown: %v", err)
	}
	bot.Wait()
	dispatcher.Wait()
	logger.Info("Program stopped cleanly")
	return nil
}
