package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"matchcore/db"
	"matchcore/internal/config"
	"matchcore/internal/engine"
	"matchcore/internal/journal"
	"matchcore/internal/marketdata"
	"matchcore/internal/model"
	"matchcore/internal/obs"
	"matchcore/internal/rest"
)

const shutdownTimeout = 5 * time.Second

func nowMillis() int64 { return time.Now().UnixMilli() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	zlog, err := obs.New()
	if err != nil {
		panic(err)
	}
	defer zlog.Sync()
	logger := zlog.Sugar()

	logger.Infow("opening journal", "dir", cfg.JournalDir)
	primary, err := journal.OpenPebble(cfg.JournalDir)
	if err != nil {
		logger.Fatalw("open journal", "err", err)
	}
	defer primary.Close()

	var mq engine.MsgQueue = primary
	if len(cfg.KafkaBrokers) > 0 {
		fanout, err := journal.NewKafkaFanout(primary, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Fatalw("open kafka fanout", "err", err)
		}
		defer fanout.Close()
		mq = fanout
	}

	serv := engine.NewServ(mq, cfg.MaxExecs, engine.WithLogger(obs.NewEngineLogger(zlog)))

	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx)
		if err != nil {
			logger.Fatalw("open database", "err", err)
		}
		defer pool.Close()

		if err := serv.Load(model.NewPostgres(pool), engine.Time(nowMillis())); err != nil {
			logger.Fatalw("load", "err", err)
		}
	}

	eng := engine.NewEngine(serv, 1024)

	bbo := make(map[engine.Id64]*marketdata.Hub)
	for _, m := range serv.Markets().All() {
		bbo[m.Id()] = marketdata.NewHub(m.Id())
	}
	eng.SetNotify(func(m *engine.Market) {
		if hub, ok := bbo[m.Id()]; ok {
			hub.Push(engine.NewBBOSnapshot(m))
		}
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: rest.NewRouter(eng, bbo)}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		eng.Run(gctx)
		return nil
	})

	for _, hub := range bbo {
		hub := hub
		g.Go(func() error {
			hub.Run(gctx.Done())
			return nil
		})
	}

	g.Go(func() error {
		logger.Infow("listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorw("server exited with error", "err", err)
	}
}
