package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/RedaDarwiche/skyfight-server/server"
)

// SkyFight 入口：加载配置，启动房间循环，提供 HTTP 与 WebSocket 服务
func main() {
	var (
		addr      string
		envFile   string
		signAdmin string
	)
	flag.StringVar(&addr, "addr", "", "listen address, e.g. :3000 (overrides PORT/ADDR)")
	flag.StringVar(&envFile, "env", ".env", "optional dotenv file")
	flag.StringVar(&signAdmin, "sign-admin", "", "print the admin token for this email and exit")
	flag.Parse()

	cfg, err := server.LoadConfig(envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if signAdmin != "" {
		if cfg.AdminSecret == "" {
			fmt.Fprintln(os.Stderr, "ADMIN_SECRET is not set")
			os.Exit(1)
		}
		fmt.Println(server.SignAdminToken(cfg.AdminSecret, signAdmin))
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}

	log, err := server.NewLogger(cfg.LogFile, cfg.LogLevel, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer server.SyncLogger(log)

	metrics := server.NewMetrics()
	room := server.NewRoom(server.Options{
		Config:  cfg,
		Logger:  log.Named("room"),
		Metrics: metrics,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		NewID:   uuid.NewString,
	})
	mgr := server.NewManager(room, cfg, metrics, log)
	mgr.Start()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mgr.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("SkyFight listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = multierr.Combine(srv.Shutdown(ctx), mgr.Stop(ctx))
	if err != nil {
		log.Errorw("shutdown", "err", err)
	}
}
