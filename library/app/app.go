package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	glog "github.com/labstack/gommon/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-system/library/config"
	"github.com/Astemirdum/library-system/library/internal/handler"
	"github.com/Astemirdum/library-system/library/internal/server"
	"github.com/Astemirdum/library-system/pkg/logger"
)

func Run(cfg config.Config) {
	log, err := logger.NewLogger(cfg.Log, "library")
	if err != nil {
		glog.Fatal("logger: ", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, closer, err := OpenDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal("db init", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer closer.Close() //nolint:errcheck

	enqueuer, closeEnqueuer, err := NewEnqueuer(cfg, log)
	if err != nil {
		log.Fatal("enqueuer", zap.Error(err))
	}
	defer closeEnqueuer()

	svc, err := NewLibrary(db, enqueuer, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	h := handler.New(svc, log, cfg.Auth)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gCtx.Done()
		log.Debug("Graceful shutdown", zap.Error(context.Cause(gCtx)))

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})
	if err = g.Wait(); err != nil {
		log.Error("server", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
}
