// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"telegram-clinic-bot/internal/application"
	"telegram-clinic-bot/internal/config"
	"telegram-clinic-bot/internal/infra/db/postgres"
	httpapi "telegram-clinic-bot/internal/infra/http"
	"telegram-clinic-bot/internal/infra/logging"
	"telegram-clinic-bot/internal/infra/metrics"
	"telegram-clinic-bot/internal/infra/payment"
	red "telegram-clinic-bot/internal/infra/redis"
	"telegram-clinic-bot/internal/infra/sched"
	tele "telegram-clinic-bot/internal/infra/telegram"
	"telegram-clinic-bot/internal/infra/worker"
	"telegram-clinic-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	stateRepo := red.NewStateRepo(redisClient, cfg.Redis.TTL)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	userRepo := postgres.NewUserRepo(pool)
	paymentRepo := postgres.NewPaymentRepo(pool)
	txManager := postgres.NewTxManager(pool)

	// ---- Telegram (outbound side first; the facade needs the messenger) ----
	bot, err := tele.NewRealBot(&cfg.Bot, &cfg.Payment, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}

	// ---- Checkout provider chain ----
	chain := payment.NewChain(logger,
		payment.NewStripeProvider(cfg.Payment.Stripe.APIKey, cfg.Payment.Stripe.Currency, cfg.Payment.Stripe.UnitMultiplier),
		payment.NewPayPalProvider(cfg.Payment.PayPal.ClientID, cfg.Payment.PayPal.Secret, cfg.Payment.PayPal.BaseURL, cfg.Payment.PayPal.Currency),
		payment.NewQiwiProvider(cfg.Payment.Qiwi.APIKey, cfg.Payment.Qiwi.BaseURL, cfg.Payment.Qiwi.Currency),
	)

	// ---- Worker pool ----
	sendPool := worker.NewPool(cfg.Bot.Workers, logger)
	sendPool.Start(ctx)
	defer sendPool.Stop()

	// ---- Use cases ----
	approvalUC := usecase.NewApprovalUseCase(userRepo, paymentRepo, txManager, locker, cfg.Payment.Currency, logger)
	purchaseUC := usecase.NewPurchaseUseCase(userRepo, paymentRepo, stateRepo, locker, approvalUC, logger)
	checkoutUC := usecase.NewCheckoutUseCase(paymentRepo, chain, approvalUC, logger)
	registrationUC := usecase.NewRegistrationUseCase(userRepo, stateRepo, cfg.Bonus.Referral, logger)
	bonusUC := usecase.NewBonusUseCase(userRepo, bot, locker, redisClient,
		usecase.SocialChats{Channel: cfg.Social.Channel, Group: cfg.Social.Group}, cfg.Bonus.Socials, logger)
	questionUC := usecase.NewQuestionUseCase(userRepo, stateRepo, logger)
	broadcastUC := usecase.NewBroadcastUseCase(userRepo, bot, sendPool, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, paymentRepo, logger)
	userUC := usecase.NewUserUseCase(userRepo)

	// ---- Facade ----
	facade := application.NewBotFacade(cfg, bot, stateRepo,
		registrationUC, purchaseUC, checkoutUC, approvalUC, bonusUC,
		questionUC, broadcastUC, statsUC, userUC, logger)
	bot.SetFacade(facade)

	go func() {
		if err := bot.StartPolling(ctx); err != nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Admin HTTP (health, metrics) ----
	srv := httpapi.NewServer(cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin http server error")
		}
	}()

	// ---- Scheduled workers ----
	expiry := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, statsUC, logger)
	go func() { _ = expiry.Run(ctx) }()
	report := sched.NewReportWorker(cfg.Scheduler.ReportInterval, facade, logger)
	go func() { _ = report.Run(ctx) }()
	reconciler := sched.NewPaymentReconciler(cfg.Scheduler.ReconcileInterval, cfg.Scheduler.ReconcileStaleAfter, checkoutUC, logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	_ = srv.Shutdown(context.Background())
}
