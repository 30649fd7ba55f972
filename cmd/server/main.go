package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/betbot/gokx/internal/accounts"
	"github.com/betbot/gokx/internal/executor"
	"github.com/betbot/gokx/internal/marketdata"
	"github.com/betbot/gokx/internal/server"
	"github.com/betbot/gokx/internal/signals"
	"github.com/betbot/gokx/okx/client"
	"github.com/betbot/gokx/pkg/config"
	"github.com/betbot/gokx/pkg/logger"
	"github.com/betbot/gokx/pkg/ratelimit"
	"github.com/betbot/gokx/pkg/secretstore"
	"github.com/betbot/gokx/pkg/shutdown"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		logger.InitDefault()
		logger.Errorf("配置加载失败: %v", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      settings.LogLevel,
		OutputFile: settings.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}); err != nil {
		logger.InitDefault()
		logger.Warnf("日志初始化失败，使用默认配置: %v", err)
	}

	sd := shutdown.NewManager()

	var store *secretstore.Store
	if settings.SecretDBPath != "" {
		key, err := secretstore.ParseKey(settings.SecretDBKey)
		if err != nil {
			logger.Errorf("SECRET_DB_KEY 无效: %v", err)
			os.Exit(1)
		}
		store, err = secretstore.Open(secretstore.OpenOptions{
			Path:          settings.SecretDBPath,
			EncryptionKey: key,
			ReadOnly:      true,
		})
		if err != nil {
			logger.Errorf("打开密钥存储失败: %v", err)
			os.Exit(1)
		}
		sd.OnShutdown(func(ctx context.Context) { _ = store.Close() })
	}

	registry, err := accounts.Load(accounts.LoadOptions{
		ClientOptions: client.Options{
			BaseURL:   settings.APIBaseURL,
			Timeout:   settings.RequestTimeout,
			Simulated: settings.Simulated,
		},
		AccountsFile: settings.AccountsFile,
		SecretStore:  store,
	})
	if err != nil {
		logger.Errorf("账户加载失败: %v", err)
		os.Exit(1)
	}
	if len(registry.ListNames()) == 0 {
		logger.Warn("没有配置任何账户，交易接口将全部返回账户不存在")
	}

	gate := ratelimit.NewIntervalGate(settings.RequestInterval)
	exec := executor.New(registry, gate)

	sigSvc := signals.New(settings.SignalSourceURL)
	sd.OnShutdown(func(ctx context.Context) { sigSvc.Close() })

	feed := marketdata.NewFeed(settings.WSBaseURL)
	if feed != nil {
		if err := feed.Start(context.Background()); err != nil {
			logger.Warnf("行情 WebSocket 连接失败，行情查询回退 REST: %v", err)
			feed = nil
		} else {
			sd.OnShutdown(func(ctx context.Context) { feed.Stop() })
		}
	}

	srv := server.New(exec, sigSvc, feed, settings)
	httpSrv := &http.Server{
		Addr:              settings.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	sd.OnShutdown(func(ctx context.Context) { _ = httpSrv.Shutdown(ctx) })

	go func() {
		logger.Infof("gokx listening on %s (simulated=%v, interval=%s)",
			settings.Listen, settings.Simulated, settings.RequestInterval)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server error: %v", err)
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sd.Shutdown(ctx)

	logger.Info("server stopped")
}
