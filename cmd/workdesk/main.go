package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workdesk/internal/account"
	"workdesk/internal/auth"
	"workdesk/internal/blog"
	"workdesk/internal/config"
	"workdesk/internal/db"
	httpx "workdesk/internal/http"
	"workdesk/internal/logger"
	"workdesk/internal/notify"
	"workdesk/internal/sequence"
	"workdesk/internal/task"
)

func main() {
	cfg, _ := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFile)

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	sealer, err := account.NewSealer(cfg.AccountSecret)
	if err != nil {
		log.Fatal(err)
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	seq := &sequence.Allocator{DB: gdb}
	dispatcher := notify.NewDispatcher(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.TelegramAPIBase, cfg.TaskBaseURL)

	svc := httpx.Services{
		Auth:    &auth.Service{DB: gdb, MasterEmail: cfg.MasterEmail},
		JWT:     jwtSvc,
		Task:    &task.Service{DB: gdb, Seq: seq, Notifier: dispatcher},
		Account: &account.Service{DB: gdb, Sealer: sealer},
		Blog:    &blog.Service{DB: gdb, Seq: seq},
	}
	r := httpx.NewRouter(cfg, svc)

	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
