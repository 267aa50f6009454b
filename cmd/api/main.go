package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breakhistory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/attendance-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-backend-go/internal/service/attendance"
	breakHistoryService "github.com/cmlabs-hris/attendance-backend-go/internal/service/breakhistory"
	breakService "github.com/cmlabs-hris/attendance-backend-go/internal/service/breaks"
	employeeDashboardService "github.com/cmlabs-hris/attendance-backend-go/internal/service/employee_dashboard"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
	leaveService "github.com/cmlabs-hris/attendance-backend-go/internal/service/leave"
	notificationService "github.com/cmlabs-hris/attendance-backend-go/internal/service/notification"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	level := parseLevel(cfg.App.LogLevel)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.App.AutoMigrate {
		if err := postgresql.Migrate(ctx, db); err != nil {
			slog.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
		if cfg.App.Env == "development" {
			n, err := postgresql.SeedEmployees(ctx, db, fixtures.DefaultEmployees())
			if err != nil {
				slog.Error("Failed to seed employees", "error", err)
				os.Exit(1)
			}
			slog.Info("Seeded development employees", "inserted", n)
		}
	}

	tx := postgresql.NewTransactor(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	clockRepo := postgresql.NewClockRepository(db)
	breakRepo := postgresql.NewBreakRepository(db)
	historyRepo := postgresql.NewHistoryRepository(db)
	leaveRepo := postgresql.NewLeaveRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		slog.Error("Failed to initialize local storage", "error", err)
		os.Exit(1)
	}
	fileService := file.NewFileService(fileStorage, cfg.Upload.SignatureMaxWidth)

	hub := sse.NewHub(10)
	notifSvc := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.Workers,
		QueueSize:     cfg.Notification.QueueSize,
	})

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	aggregator := breakHistoryService.NewAggregator(historyRepo, breakhistory.NewPolicy(cfg.Policy.BreakQualifyingCategories))
	clockSvc := attendanceService.NewAttendanceService(tx, clockRepo, breakRepo, employeeRepo)
	breakSvc := breakService.NewBreakService(
		tx,
		breakRepo,
		clockRepo,
		employeeRepo,
		historyRepo,
		aggregator,
		notifSvc,
		breakService.Config{StaleAfter: cfg.Policy.BreakStaleAfter},
	)
	leaveSvc := leaveService.NewLeaveService(tx, leaveRepo, employeeRepo, fileService, notifSvc, leaveService.Config{
		AnnualAllowance:    cfg.Policy.AnnualLeaveAllowance,
		AttachmentMaxBytes: cfg.Upload.AttachmentMaxBytes,
		SignatureMaxBytes:  cfg.Upload.SignatureMaxBytes,
	})
	homeSvc := employeeDashboardService.NewEmployeeDashboardService(clockRepo, breakRepo, historyRepo)

	scheduler := cron.NewScheduler()
	if err := cron.NewBreakJobs(breakSvc, cfg.Policy.BreakStaleScanInterval).RegisterJobs(scheduler); err != nil {
		slog.Error("Failed to register cron jobs", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	router := appHTTP.NewRouter(JWTService, appHTTP.Handlers{
		Attendance:   appHTTP.NewAttendanceHandler(clockSvc, homeSvc),
		Break:        appHTTP.NewBreakHandler(breakSvc),
		Leave:        appHTTP.NewLeaveHandler(leaveSvc),
		Notification: appHTTP.NewNotificationHandler(notifSvc, JWTService),
	}, appHTTP.RouterOptions{
		Env:                cfg.App.Env,
		Version:            version,
		LogLevel:           level,
		CORSAllowedOrigins: cfg.App.CORSAllowedOrigins,
		MaxBodyBytes:       cfg.App.MaxBodyBytes,
		UploadsDir:         fileStorage.BasePath(),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", "http://localhost"+server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}

	scheduler.Stop()
	notifSvc.Stop()
	hub.Close()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
