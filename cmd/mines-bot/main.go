package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"mines-client/internal/backend"
	"mines-client/internal/balance"
	"mines-client/internal/config"
	"mines-client/internal/logging"
	"mines-client/internal/mines"
	"mines-client/internal/realtime"
	httptransport "mines-client/internal/transport/http"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	defer func() { _ = logging.Close() }()

	cfg, err := config.LoadApp()
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap := balance.NewSnapshot(decimal.Zero)
	listener := balance.NewListener(snap)
	snap.Subscribe(func(amount decimal.Decimal) {
		log.Debug().Str("amount", amount.String()).Msg("balance_changed")
	})

	api := backend.NewClient(cfg.Client.APIBaseURL, cfg.Client.AuthToken, cfg.Client.HTTPTimeout())
	ctrl, err := mines.NewController(api, snap, cfg.Client.BoardCells)
	if err != nil {
		log.Fatal().Err(err).Msg("controller init failed")
	}
	defer ctrl.Close()

	rt := realtime.NewClient(cfg.Client.WSURL, cfg.Client.AuthToken, cfg.Client.ReconnectBase(), cfg.Client.ReconnectMax())
	rt.OnConnect(func(c *realtime.Conn) { listener.Attach(c) })
	rt.OnDisconnect(func(*realtime.Conn, error) { listener.Detach() })
	rtDone := make(chan struct{})
	go func() {
		defer close(rtDone)
		_ = rt.Run(ctx)
	}()

	if cfg.Bot.StatusAddr != "" {
		go serveStatus(ctx, cfg.Bot.StatusAddr, httptransport.Deps{
			Controller: ctrl,
			Balance:    snap,
			Listener:   listener,
			AdminKey:   cfg.Bot.StatusAdminKey,
		})
	}

	if !waitForBalance(ctx, snap, 10*time.Second) {
		log.Warn().Msg("no balance push yet; starting with local balance")
	}
	_ = ctrl.Resume(ctx)

	p := newPlayer(ctrl, mines.NewPicker(0), cfg.Bot)
	p.run(ctx)

	stop()
	<-rtDone
	log.Info().Int("rounds", p.played).Msg("bot stopped")
}

// waitForBalance blocks until the first push lands, the timeout passes or ctx
// is done.
func waitForBalance(ctx context.Context, snap *balance.Snapshot, timeout time.Duration) bool {
	pushed := make(chan struct{}, 1)
	cancel := snap.Subscribe(func(decimal.Decimal) {
		select {
		case pushed <- struct{}{}:
		default:
		}
	})
	defer cancel()
	if _, ok := snap.Confirmed(); ok {
		return true
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-pushed:
		return true
	case <-t.C:
		return false
	case <-ctx.Done():
		return false
	}
}

func serveStatus(ctx context.Context, addr string, deps httptransport.Deps) {
	r := httptransport.NewRouter(deps)
	httptransport.LogRoutes(r)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("status http listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("status server stopped")
	}
}
