package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/agrovet/planvacunal-api/internal/application/allocation"
	"github.com/agrovet/planvacunal-api/internal/application/reservation"
	"github.com/agrovet/planvacunal-api/internal/application/schedule"
	"github.com/agrovet/planvacunal-api/internal/application/stock"
	"github.com/agrovet/planvacunal-api/internal/infrastructure/postgres"
	"github.com/agrovet/planvacunal-api/internal/infrastructure/rabbit"
	httpRouter "github.com/agrovet/planvacunal-api/internal/interfaces/http"
	"github.com/agrovet/planvacunal-api/pkg/config"
	"github.com/agrovet/planvacunal-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	calendarRepo := postgres.NewCalendarRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	stockUC := stock.NewUseCase(txRunner, productRepo, movementRepo, log)
	reservationUC := reservation.NewUseCase(txRunner, stockUC, log)
	allocationUC := allocation.NewUseCase(txRunner, calendarRepo, stockUC, log)
	scheduleUC := schedule.NewUseCase(txRunner, productRepo, allocationUC, log)

	// Consumidor AMQP: deshabilitado si no hay RABBIT_URL
	if cfg.Rabbit.URL != "" {
		consumer, err := rabbit.NewConsumer(cfg.Rabbit, reservationUC, allocationUC, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer consumer.Close()
		if err := consumer.StartConsumers(ctx); err != nil {
			log.Fatal().Err(err).Msg("arranque de consumidores AMQP")
		}
		log.Info().Str("queue", cfg.Rabbit.QueueQuotationState).Msg("consumidores AMQP activos")
	}

	// Job periódico de reconciliación de reservas
	reconcileCtx, stopReconcile := context.WithCancel(ctx)
	defer stopReconcile()
	if cfg.Reconcile.IntervalMinutes > 0 {
		go runReconciler(reconcileCtx, reservationUC, time.Duration(cfg.Reconcile.IntervalMinutes)*time.Minute, log)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockUC:       stockUC,
		ReservationUC: reservationUC,
		AllocationUC:  allocationUC,
		ScheduleUC:    scheduleUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stopReconcile()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
}

// runReconciler recalcula periódicamente el reservado de cada producto con
// control de stock desde sus reservas activas. Corrige la deriva acumulada
// por liberaciones con piso en cero.
func runReconciler(ctx context.Context, uc *reservation.UseCase, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			results, err := uc.ReconcileAll(ctx)
			if err != nil {
				log.Error().Err(err).Msg("reconciliación de reservas")
				continue
			}
			corrected := 0
			for _, r := range results {
				if r.Corrected {
					corrected++
				}
			}
			log.Info().
				Int("products", len(results)).
				Int("corrected", corrected).
				Msg("reconciliación de reservas completada")
		}
	}
}
