package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"logsift/classify"
	"logsift/config"
	"logsift/dashboard"
	"logsift/internal/dedup"
	"logsift/internal/hub"
	"logsift/internal/messaging/consumer"
	"logsift/internal/stats"
	"logsift/notify"
	"logsift/notify/sink"
	worker "logsift/processing"
	"logsift/storage/store"
)

const pipelineConfigPath = "./config/pipeline.defaults.yml"

func main() {
	logger := log.New(os.Stdout, "[PIPELINE] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting log classification pipeline...")

	// 1. Load pipeline configuration
	cfg, err := config.LoadPipelineConfig(pipelineConfigPath)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load pipeline configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize the record store
	var recordStore store.Store
	if cfg.Database.DSN == "memory://local" {
		logger.Println("Initializing in-memory record store...")
		recordStore = store.NewMemoryStore()
	} else {
		logger.Println("Initializing database connection...")
		pgStore, err := store.NewPostgresStore(ctx, cfg.Database.DSN, cfg.Database.MinConnections, cfg.Database.MaxConnections, logger)
		if err != nil {
			logger.Fatalf("FATAL: Failed to initialize database store: %v", err)
		}
		recordStore = pgStore
	}
	defer recordStore.Close()

	// 3. Initialize multiple consumers
	var mqConsumers []consumer.Consumer
	if len(cfg.KafkaConsumer.Brokers) > 0 && cfg.KafkaConsumer.Brokers[0] != "mock://local" {
		logger.Printf("Initializing %d Kafka message queue consumers...", cfg.KafkaConsumer.Count)
		for i := 0; i < cfg.KafkaConsumer.Count; i++ {
			kafkaConsumer, err := consumer.NewKafkaConsumer(cfg.KafkaConsumer, logger)
			if err != nil {
				logger.Fatalf("FATAL: Failed to initialize Kafka consumer %d: %v", i, err)
			}
			mqConsumers = append(mqConsumers, kafkaConsumer)
		}
	} else {
		logger.Println("Initializing Mock message queue consumer...")
		mqConsumers = append(mqConsumers, consumer.NewMockConsumer(logger))
	}
	defer func() {
		for _, c := range mqConsumers {
			c.Close()
		}
	}()

	// 4. Shared pipeline state
	classifier := classify.NewRuleClassifier(cfg.Classifier)
	aggregator := stats.NewAggregator()
	tracker := dedup.NewTracker()
	broadcastHub := hub.New(cfg.Hub.SubscriberBuffer, logger)

	keepalive, err := time.ParseDuration(cfg.Hub.KeepaliveInterval)
	if err != nil || keepalive <= 0 {
		logger.Printf("Warning: Invalid keepalive_interval '%s', using default 15s", cfg.Hub.KeepaliveInterval)
		keepalive = 15 * time.Second
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		broadcastHub.RunKeepalive(ctx, keepalive)
	}()

	// 5. Create and start one worker per consumer
	for i, c := range mqConsumers {
		w := worker.New(cfg.Worker, logger, c, recordStore, classifier, aggregator, broadcastHub)
		wg.Add(1)
		go func(workerID int, w *worker.Worker) {
			defer wg.Done()
			logger.Printf("Starting worker %d with its dedicated consumer...", workerID)
			w.Run(ctx)
			logger.Printf("Worker %d stopped.", workerID)
		}(i+1, w)
	}

	// 6. Notification dispatcher
	notifySink, err := sink.New(cfg.Notifier, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize notification sink: %v", err)
	}
	defer notifySink.Close()

	dispatcher := notify.NewDispatcher(cfg.Notifier, recordStore, tracker, notifySink, logger)
	if err := dispatcher.Run(ctx); err != nil {
		logger.Fatalf("FATAL: Failed to start notification dispatcher: %v", err)
	}
	defer dispatcher.Stop()

	// 7. Dashboard HTTP server
	handler := dashboard.NewHandler(recordStore, aggregator, dispatcher, logger)
	streamHandler := dashboard.NewStreamHandler(broadcastHub, tracker, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/stats", handler.Stats)
	mux.HandleFunc("/v1/records", handler.Records)
	mux.HandleFunc("/v1/notifications/status", handler.NotificationStatus)
	mux.HandleFunc("/v1/notifications/send", handler.TriggerSend)
	mux.HandleFunc("/v1/notifications/auto", handler.AutoSend)
	mux.HandleFunc("/v1/notifications/clear-sent", handler.ClearSent)
	mux.Handle("/v1/stream", streamHandler)
	mux.HandleFunc(cfg.Monitoring.HealthCheckPath, handler.HealthCheck)

	readTimeout := cfg.HttpServer.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 5 * time.Second
	}

	idleTimeout := cfg.HttpServer.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 60 * time.Second
	}

	maxHeaderBytes := cfg.HttpServer.MaxHeaderBytes
	if maxHeaderBytes == 0 {
		maxHeaderBytes = 1 << 20 // 1 MB
	}

	// No WriteTimeout: /v1/stream holds its response open indefinitely.
	httpServer := &http.Server{
		Addr:           cfg.HttpServer.ListenAddr,
		Handler:        mux,
		ReadTimeout:    readTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Printf("Dashboard HTTP server listening on %s", cfg.HttpServer.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server startup failed: %v", err)
		}
		logger.Println("HTTP server stopped listening.")
	}()

	logger.Printf("Pipeline started with %d worker(s). Press Ctrl+C to stop.", len(mqConsumers))

	// 8. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, starting graceful shutdown...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	logger.Println("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown failed: %v", err)
	} else {
		logger.Println("HTTP server shutdown.")
	}

	dispatcher.Stop()

	logger.Println("Waiting for all workers to finish...")
	wg.Wait()

	logger.Println("Pipeline shut down gracefully.")
}
