package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/nkoryagin/atelier-orders/internal/app"
	"github.com/nkoryagin/atelier-orders/internal/app/handlers"
	"github.com/nkoryagin/atelier-orders/internal/config"
	"github.com/nkoryagin/atelier-orders/internal/domain/models"
	"github.com/nkoryagin/atelier-orders/internal/jwt-new/jwtmiddleware"
	"github.com/nkoryagin/atelier-orders/internal/lib/logger"
	"github.com/nkoryagin/atelier-orders/internal/lib/logger/handlers/urllog"
	"github.com/nkoryagin/atelier-orders/internal/service"
	"github.com/nkoryagin/atelier-orders/internal/storage"
	"github.com/nkoryagin/atelier-orders/pkg/rabbitmq"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	// клиент RabbitMQ опционален: без брокера события просто не публикуются
	var events service.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL})
		if err != nil {
			log.Error("failed to initialize RabbitMQ client", slog.Any("error", err))
			panic(errors.Wrap(err, "failed to initialize RabbitMQ client"))
		}
		defer mqClient.Close()
		events = mqClient
		log.Info("RabbitMQ client connected")
	} else {
		log.Warn("RabbitMQ URL is empty, status events will not be published")
	}

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	customRepo := storage.NewCustomOrderRepository(application.DB)
	auditRepo := storage.NewAuditLogRepository(application.DB)
	summaryRepo := storage.NewSummaryRepository(application.DB)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(application.Config.JWT.TokenTTL)*time.Minute)
	orderService := service.NewOrderService(application.Logger, application.DB, orderRepo, auditRepo, events)
	customService := service.NewCustomOrderService(application.Logger, application.DB, customRepo, auditRepo, events)
	auditService := service.NewAuditService(application.Logger, auditRepo)
	summaryService := service.NewSummaryService(application.Logger, summaryRepo)

	// эндпоинт для аутентификации
	router.Post("/api/auth", handlers.AuthHandler(application.Logger, authService))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware()
		r.Use(jwtMW)

		// обычные заказы
		r.Post("/api/orders", handlers.CreateOrderHandler(application.Logger, orderService))
		r.Get("/api/orders/{id}", handlers.GetOrderHandler(application.Logger, orderService))
		r.Post("/api/orders/{id}/checkout", handlers.CheckoutHandler(application.Logger, orderService))
		r.Patch("/api/orders/{id}", handlers.TransitionOrderHandler(application.Logger, orderService))

		// индивидуальные заказы: бриф, ответ дизайнера, продвижение, референсы
		r.Post("/api/custom-orders", handlers.SubmitBriefHandler(application.Logger, customService))
		r.Get("/api/custom-orders/{id}", handlers.GetCustomOrderHandler(application.Logger, customService))
		r.Post("/api/custom-orders/{id}/respond", handlers.RespondHandler(application.Logger, customService))
		r.Post("/api/custom-orders/{id}/status", handlers.AdvanceCustomOrderHandler(application.Logger, customService))
		r.Post("/api/custom-orders/{id}/assets", handlers.AttachAssetsHandler(application.Logger, customService))

		// административные маршруты: журнал изменений и сводная панель
		r.Group(func(admin chi.Router) {
			admin.Use(jwtmiddleware.RequireRole(models.RoleAdmin))
			admin.Get("/api/admin/orders/{id}/audit", handlers.AuditListHandler(application.Logger, auditService))
			admin.Get("/api/admin/summary", handlers.SummaryHandler(application.Logger, summaryService))
		})
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
