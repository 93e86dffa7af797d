package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	cancelBookingHandler "github.com/m04kA/SMC-SlotBookingService/internal/api/handlers/cancel_booking"
	confirmBookingHandler "github.com/m04kA/SMC-SlotBookingService/internal/api/handlers/confirm_booking"
	createBookingHandler "github.com/m04kA/SMC-SlotBookingService/internal/api/handlers/create_booking"
	createPricingRuleHandler "github.com/m04kA/SMC-SlotBookingService/internal/api/handlers/create_pricing_rule"
	deactivatePricingRuleHandler "github.com/m04kA/SMC-SlotBookingService/internal/api/handlers/deactivate_pricing_rule"
	getAvailabilityHandler "github.com/m04kA/SMC-SlotBookingService/internal/api/handlers/get_availability"
	getBookingHandler "github.com/m04kA/SMC-SlotBookingService/internal/api/handlers/get_booking"
	getTenantBookingsHandler "github.com/m04kA/SMC-SlotBookingService/internal/api/handlers/get_tenant_bookings"
	getUserBookingsHandler "github.com/m04kA/SMC-SlotBookingService/internal/api/handlers/get_user_bookings"
	listPricingRulesHandler "github.com/m04kA/SMC-SlotBookingService/internal/api/handlers/list_pricing_rules"
	paymentCallbackHandler "github.com/m04kA/SMC-SlotBookingService/internal/api/handlers/payment_callback"
	updateAdminNotesHandler "github.com/m04kA/SMC-SlotBookingService/internal/api/handlers/update_admin_notes"
	"github.com/m04kA/SMC-SlotBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBookingService/internal/config"
	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/infra/locks"
	bookingRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/booking"
	pricingRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/pricing"
	promotionRepo "github.com/m04kA/SMC-SlotBookingService/internal/infra/storage/promotion"
	listingServiceClient "github.com/m04kA/SMC-SlotBookingService/internal/integrations/listingservice"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/notification"
	paymentClient "github.com/m04kA/SMC-SlotBookingService/internal/integrations/payment"
	userServiceClient "github.com/m04kA/SMC-SlotBookingService/internal/integrations/userservice"
	bookingsService "github.com/m04kA/SMC-SlotBookingService/internal/service/bookings"
	ledgerService "github.com/m04kA/SMC-SlotBookingService/internal/service/ledger"
	pricingService "github.com/m04kA/SMC-SlotBookingService/internal/service/pricing"
	promotionService "github.com/m04kA/SMC-SlotBookingService/internal/service/promotion"
	cancelBookingUC "github.com/m04kA/SMC-SlotBookingService/internal/usecase/cancel_booking"
	confirmBookingUC "github.com/m04kA/SMC-SlotBookingService/internal/usecase/confirm_booking"
	createBookingUC "github.com/m04kA/SMC-SlotBookingService/internal/usecase/create_booking"
	getAvailabilityUC "github.com/m04kA/SMC-SlotBookingService/internal/usecase/get_availability"
	paymentCallbackUC "github.com/m04kA/SMC-SlotBookingService/internal/usecase/payment_callback"
	"github.com/m04kA/SMC-SlotBookingService/internal/worker/holdsweeper"
	"github.com/m04kA/SMC-SlotBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
	"github.com/m04kA/SMC-SlotBookingService/pkg/metrics"
	"github.com/m04kA/SMC-SlotBookingService/pkg/txmanager"
)

// Dispatcher отправитель уведомлений о бронированиях (Kafka или лог)
type Dispatcher interface {
	Notify(ctx context.Context, event string, booking *domain.Booking)
	Close() error
}

// Locker блокировки слотов на время резервирования
type Locker interface {
	Acquire(ctx context.Context, keys []string, ttl time.Duration) (func(), error)
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SlotBookingService...")
	log.Info("Configuration loaded from config.toml")

	// Даты и время слотов трактуются в часовом поясе сервиса
	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Fatal("Failed to load timezone %q: %v", cfg.Booking.Timezone, err)
	}
	time.Local = loc

	// Инициализируем метрики (если включены)
	var (
		metricsCollector *metrics.Metrics
		dbCollector      dbmetrics.Collector
	)
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName, prometheus.DefaultRegisterer)
		dbCollector = metricsCollector
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Без коллектора обёртка только пробрасывает запросы
	wrappedDB := dbmetrics.WrapWithDefault(db, dbCollector, cfg.Metrics.ServiceName, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Блокировки слотов: Redis для нескольких реплик, иначе в памяти процесса
	var locker Locker
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatal("Failed to ping redis at %s: %v", cfg.Redis.Addr, err)
		}
		redisLocker := locks.NewRedisLocker(redisClient, log)
		if err := redisLocker.Preload(pingCtx); err != nil {
			cancel()
			log.Fatal("Failed to load redis lock scripts: %v", err)
		}
		cancel()

		locker = redisLocker
		log.Info("Redis slot locks enabled (addr=%s)", cfg.Redis.Addr)
	} else {
		locker = locks.NewLocalLocker()
		log.Info("Using in-process slot locks")
	}

	// Уведомления: Kafka или только лог
	var dispatcher Dispatcher
	if cfg.Kafka.Enabled {
		producer, err := notification.NewSyncProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
		if err != nil {
			log.Fatal("Failed to create Kafka producer: %v", err)
		}
		dispatcher = notification.NewKafkaDispatcher(producer, cfg.Kafka.Topic, log, metricsCollector)
		log.Info("Kafka notifications enabled (brokers=%v, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		dispatcher = notification.NewLogDispatcher(log, metricsCollector)
		log.Info("Kafka disabled, notifications are written to the log")
	}
	defer dispatcher.Close()

	// Инициализируем интеграционных клиентов
	listingClient := listingServiceClient.NewClient(
		cfg.ListingService.URL,
		time.Duration(cfg.ListingService.Timeout)*time.Second,
		log,
	)
	userClient := userServiceClient.NewClient(
		cfg.UserService.URL,
		time.Duration(cfg.UserService.Timeout)*time.Second,
		log,
	)
	payments := paymentClient.NewClient(
		cfg.PaymentService.URL,
		cfg.PaymentService.APIKey,
		time.Duration(cfg.PaymentService.Timeout)*time.Second,
	)
	log.Info("Integration clients initialized (ListingService=%s, UserService=%s, PaymentService=%s)",
		cfg.ListingService.URL, cfg.UserService.URL, cfg.PaymentService.URL)

	// Инициализируем репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	pricingRepository := pricingRepo.NewRepository(wrappedDB)
	promotionRepository := promotionRepo.NewRepository(wrappedDB)

	// Инициализируем сервисы
	holdTTL := time.Duration(cfg.Booking.HoldTTLMinutes) * time.Minute

	ledgerSvc := ledgerService.NewService(
		bookingRepository,
		locker,
		txMgr,
		metricsCollector,
		log,
		ledgerService.Config{
			DefaultHoldTTL: holdTTL,
			LockTTL:        time.Duration(cfg.Redis.LockTTL) * time.Second,
		},
	)
	pricingSvc := pricingService.NewService(pricingRepository, listingClient, metricsCollector, log)
	promotionSvc := promotionService.NewService(promotionRepository, txMgr, metricsCollector, log)
	bookingSvc := bookingsService.NewService(bookingRepository, log)

	// Config.Validate уже проверил формат
	taxPercent := decimal.RequireFromString(cfg.Booking.DefaultTaxPercent)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		listingClient,
		userClient,
		ledgerSvc,
		pricingSvc,
		promotionSvc,
		payments,
		dispatcher,
		log,
		createBookingUC.Config{
			HoldTTL:           holdTTL,
			DefaultTaxPercent: taxPercent,
		},
	)
	confirmBookingUseCase := confirmBookingUC.NewUseCase(
		bookingRepository,
		ledgerSvc,
		promotionSvc,
		dispatcher,
		metricsCollector,
		log,
	)
	cancelBookingUseCase := cancelBookingUC.NewUseCase(bookingRepository, ledgerSvc, dispatcher, log)
	paymentCallbackUseCase := paymentCallbackUC.NewUseCase(
		payments,
		bookingRepository,
		confirmBookingUseCase,
		cancelBookingUseCase,
		log,
	)
	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(listingClient, ledgerSvc, pricingSvc, log)

	// Фоновая очистка истёкших холдов и завершение прошедших бронирований
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	if cfg.Worker.Enabled {
		sweeper := holdsweeper.New(ledgerSvc, dispatcher, metricsCollector, log.With("component", "holdsweeper"), holdsweeper.Config{
			Interval:  time.Duration(cfg.Worker.IntervalSeconds) * time.Second,
			BatchSize: uint64(cfg.Worker.BatchSize),
		})
		go func() {
			defer close(workerDone)
			sweeper.Run(workerCtx)
		}()
		log.Info("Hold sweeper started (interval=%ds, batch=%d)", cfg.Worker.IntervalSeconds, cfg.Worker.BatchSize)
	} else {
		close(workerDone)
	}

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	confirmBooking := confirmBookingHandler.NewHandler(confirmBookingUseCase, log)
	cancelBooking := cancelBookingHandler.NewHandler(cancelBookingUseCase, log)
	paymentCallback := paymentCallbackHandler.NewHandler(paymentCallbackUseCase, log)
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getTenantBookings := getTenantBookingsHandler.NewHandler(bookingSvc, log)
	updateAdminNotes := updateAdminNotesHandler.NewHandler(bookingSvc, log)
	createPricingRule := createPricingRuleHandler.NewHandler(pricingSvc, log)
	listPricingRules := listPricingRulesHandler.NewHandler(pricingSvc, log)
	deactivatePricingRule := deactivatePricingRuleHandler.NewHandler(pricingSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Доступность и цены слотов на дату
	api.HandleFunc("/tenants/{tenantId}/listings/{listingId}/availability",
		getAvailability.Handle).Methods(http.MethodGet)

	// Callback платёжного сервиса, аутентифицируется подписью
	api.HandleFunc("/payments/callback", paymentCallback.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/tenants/{tenantId}/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/confirm", confirmBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/users/me/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// --- Управление тенантом (для администраторов) ---
	protected.HandleFunc("/tenants/{tenantId}/bookings", getTenantBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/admin-notes", updateAdminNotes.Handle).Methods(http.MethodPatch)

	// --- Правила ценообразования ---
	rules := "/tenants/{tenantId}/listings/{listingId}/pricing-rules"
	protected.HandleFunc(rules, createPricingRule.Handle).Methods(http.MethodPost)
	protected.HandleFunc(rules, listPricingRules.Handle).Methods(http.MethodGet)
	protected.HandleFunc(rules+"/{ruleId}", deactivatePricingRule.Handle).Methods(http.MethodDelete)

	_ = r.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := route.GetMethods()
		log.Debug("Route registered: %v %s", methods, path)
		return nil
	})

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Дожидаемся текущего прохода воркера
	stopWorker()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("Hold sweeper did not stop in time")
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
