package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookworm-app/bookworm/config"
	"github.com/bookworm-app/bookworm/libraryd/internal/handler"
	"github.com/bookworm-app/bookworm/libraryd/internal/repository"
	"github.com/bookworm-app/bookworm/libraryd/internal/server"
	"github.com/bookworm-app/bookworm/libraryd/internal/service"
	"github.com/bookworm-app/bookworm/pkg/logger"
	"go.uber.org/zap"
)

func Run(cfg config.Config) {
	log := logger.NewLogger(cfg.Log, "libraryd")
	repo, err := repository.NewRepository(cfg.Database, log)
	if err != nil {
		log.Fatal("repo init", zap.Error(err))
	}
	svc := service.NewService(log, repo)

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	if err := repo.Close(); err != nil {
		log.Error("repo close", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
}
