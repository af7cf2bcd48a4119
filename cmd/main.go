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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adjustCapacityHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/adjust_capacity"
	cancelAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_appointment"
	getAvailableSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_available_slots"
	holdSlotHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/hold_slot"
	reactivateAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/reactivate_appointment"
	reserveAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/reserve_appointment"
	updateScheduleHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	formRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/form"
	planningRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/planning"
	ruleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/rule"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	workflowServiceClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/workflowservice"
	"github.com/m04kA/SMC-AppointmentService/internal/service/locks"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notify"
	slotsService "github.com/m04kA/SMC-AppointmentService/internal/service/slots"
	adjustCapacityUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/adjust_capacity"
	cancelAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/cancel_appointment"
	getAvailableSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	holdSeatsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/hold_seats"
	reactivateAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/reactivate_appointment"
	reserveAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/reserve_appointment"
	updateScheduleUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/update_schedule"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

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

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
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

	// Инициализируем клиента сервиса workflow
	workflowClient := workflowServiceClient.NewClient(
		cfg.WorkflowService.URL,
		time.Duration(cfg.WorkflowService.Timeout)*time.Second,
		log,
	)
	log.Info("Workflow client initialized (WorkflowService=%s timeout=%ds)",
		cfg.WorkflowService.URL, cfg.WorkflowService.Timeout)

	// Инициализируем репозитории (с метриками или без)
	var (
		slotRepository        *slotRepo.Repository
		appointmentRepository *appointmentRepo.Repository
		planningRepository    *planningRepo.Repository
		ruleRepository        *ruleRepo.Repository
		formRepository        *formRepo.Repository
	)

	// Интерфейс для transaction manager (используется в usecases)
	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		slotRepository = slotRepo.NewRepository(wrappedDB)
		appointmentRepository = appointmentRepo.NewRepository(wrappedDB)
		planningRepository = planningRepo.NewRepository(wrappedDB)
		ruleRepository = ruleRepo.NewRepository(wrappedDB)
		formRepository = formRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		slotRepository = slotRepo.NewRepository(db)
		appointmentRepository = appointmentRepo.NewRepository(db)
		planningRepository = planningRepo.NewRepository(db)
		ruleRepository = ruleRepo.NewRepository(db)
		formRepository = formRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Реестр блокировок слотов и диспетчер событий календаря
	lockManager := locks.NewManager()
	dispatcher := notify.NewDispatcher(log, cfg.Reservation.EventBufferSize)
	defer dispatcher.Close()

	// Сервис удержания мест с таймером истечения
	holdTTL := time.Duration(cfg.Reservation.HoldTTLMinutes) * time.Minute
	holdService := locks.NewHoldService(slotRepository, lockManager, log, holdTTL)

	holdCtx, cancelHolds := context.WithCancel(context.Background())
	defer cancelHolds()
	go holdService.Run(holdCtx)
	log.Info("Hold expiry scheduler started (ttl=%s)", holdTTL)

	// Инициализируем сервис слотов
	slotSvc := slotsService.NewService(
		slotRepository,
		planningRepository,
		ruleRepository,
		lockManager,
		dispatcher,
		log,
	)

	// Инициализируем use cases
	reserveAppointmentUseCase := reserveAppointmentUC.NewUseCase(
		formRepository,
		appointmentRepository,
		slotRepository,
		slotSvc,
		lockManager,
		holdService,
		workflowClient,
		dispatcher,
		txMgr,
		log,
	)

	// Периодическая чистка блокировок, на которых никто не висит, и
	// устаревших отметок сессий
	sweepTicker := time.NewTicker(time.Duration(cfg.Reservation.LockSweepIntervalMin) * time.Minute)
	defer sweepTicker.Stop()
	go func() {
		for {
			select {
			case <-holdCtx.Done():
				return
			case <-sweepTicker.C:
				removed := lockManager.Sweep()
				if removed > 0 {
					log.Info("Lock sweep removed %d idle locks (remaining=%d)", removed, lockManager.Size())
				}
				if sessions := reserveAppointmentUseCase.SweepSavedSessions(); sessions > 0 {
					log.Info("Session sweep removed %d stale saved sessions", sessions)
				}
			}
		}
	}()

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		formRepository,
		slotSvc,
		log,
	)

	holdSeatsUseCase := holdSeatsUC.NewUseCase(
		slotRepository,
		slotSvc,
		ruleRepository,
		holdService,
		log,
	)

	cancelAppointmentUseCase := cancelAppointmentUC.NewUseCase(
		appointmentRepository,
		slotRepository,
		lockManager,
		dispatcher,
		txMgr,
		log,
	)

	adjustCapacityUseCase := adjustCapacityUC.NewUseCase(slotSvc, log)

	reactivateAppointmentUseCase := reactivateAppointmentUC.NewUseCase(
		appointmentRepository,
		slotRepository,
		lockManager,
		dispatcher,
		txMgr,
		log,
	)

	updateScheduleUseCase := updateScheduleUC.NewUseCase(
		formRepository,
		planningRepository,
		appointmentRepository,
		slotSvc,
		lockManager,
		txMgr,
		log,
	)

	// Инициализируем handlers
	reserveAppointment := reserveAppointmentHandler.NewHandler(reserveAppointmentUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	holdSlot := holdSlotHandler.NewHandler(holdSeatsUseCase, log)
	cancelAppointment := cancelAppointmentHandler.NewHandler(cancelAppointmentUseCase, log)
	reactivateAppointment := reactivateAppointmentHandler.NewHandler(reactivateAppointmentUseCase, log)
	updateSchedule := updateScheduleHandler.NewHandler(updateScheduleUseCase, log)
	adjustCapacity := adjustCapacityHandler.NewHandler(adjustCapacityUseCase, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Сетка слотов формы на период
	api.HandleFunc("/forms/{formId}/slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Записи на прием ---
	// Бронирование записи (создание или перенос)
	protected.HandleFunc("/appointments", reserveAppointment.Handle).Methods(http.MethodPost)

	// Отмена записи
	protected.HandleFunc("/appointments/{appointmentId}/cancel", cancelAppointment.Handle).Methods(http.MethodPatch)

	// Возврат отмененной записи
	protected.HandleFunc("/appointments/{appointmentId}/reactivate", reactivateAppointment.Handle).Methods(http.MethodPatch)

	// --- Удержание мест на время заполнения формы ---
	protected.HandleFunc("/slots/{slotId}/holds", holdSlot.HandleHold).Methods(http.MethodPost)
	protected.HandleFunc("/slots/{slotId}/holds", holdSlot.HandleRelease).Methods(http.MethodDelete)

	// --- Управление сеткой (для операторов) ---
	protected.HandleFunc("/forms/{formId}/schedule", updateSchedule.Handle).Methods(http.MethodPut)

	// Правка вместимости: один слот или вся сетка формы за период
	protected.HandleFunc("/slots/{slotId}/capacity", adjustCapacity.HandleSlot).Methods(http.MethodPatch)
	protected.HandleFunc("/forms/{formId}/slots/capacity", adjustCapacity.HandleRange).Methods(http.MethodPatch)

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

	// Останавливаем таймер удержаний и сбор метрик connection pool
	cancelHolds()
	holdService.Stop()
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
