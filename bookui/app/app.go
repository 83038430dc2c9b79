package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/book-manager/bookui/config"
	"github.com/Astemirdum/book-manager/bookui/internal/handler"
	"github.com/Astemirdum/book-manager/bookui/internal/server"
	"github.com/Astemirdum/book-manager/bookui/internal/service/books"
	"github.com/Astemirdum/book-manager/bookui/internal/session"
	"github.com/Astemirdum/book-manager/bookui/internal/state"
	"github.com/Astemirdum/book-manager/pkg/kafka"
	"github.com/Astemirdum/book-manager/pkg/logger"
)

const sweepInterval = time.Minute

func Run(cfg config.Config) error {
	log := logger.NewLogger(cfg.Log, "bookui")
	defer log.Sync() //nolint:errcheck

	var producer sarama.AsyncProducer
	if cfg.Kafka.Enabled() {
		p, err := kafka.NewAsyncProducer(cfg.Kafka)
		if err != nil {
			log.Error("kafka.NewAsyncProducer", zap.Error(err))
			return err
		}
		producer = p
	}
	events := kafka.NewEventLog(producer, cfg.Kafka.Topic)

	svc := books.NewService(log, cfg.BooksAPI)
	mgr := state.NewManager(svc, events, log)
	store := session.NewStore(mgr, cfg.Session.TTL, log)

	h := handler.New(store, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	gg, ctx := errgroup.WithContext(ctx)

	log.Info("http server start ON: ",
		zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("books_api", cfg.BooksAPI.BaseURL))
	gg.Go(func() error {
		return srv.Run()
	})
	gg.Go(func() error {
		return store.Janitor(ctx, sweepInterval)
	})
	if producer != nil {
		gg.Go(func() error {
			for perr := range producer.Errors() {
				log.Warn("kafka produce", zap.Error(perr))
			}
			return nil
		})
	}
	gg.Go(func() error {
		<-ctx.Done()
		log.Debug("Graceful shutdown", zap.Error(context.Cause(ctx)))

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := srv.Stop(closeCtx); err != nil {
			log.DPanic("srv.Stop", zap.Error(err))
		}
		if producer != nil {
			producer.AsyncClose()
		}
		return nil
	})

	err := gg.Wait()
	log.Info("Graceful shutdown finished", zap.Int("sessions", store.Len()))
	return err
}
