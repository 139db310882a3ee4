package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/kbukum/covaflow/logger"
)

// Token is a cooperative cancellation flag shared between the signal
// watcher and the controller loop.
type Token struct {
	canceled atomic.Bool
}

// Cancel requests termination.
func (t *Token) Cancel() { t.canceled.Store(true) }

// Canceled reports whether termination was requested.
func (t *Token) Canceled() bool { return t.canceled.Load() }

// WatchSignals cancels token on the first SIGINT or SIGTERM and calls
// hardExit on the second. The returned function stops watching.
func WatchSignals(token *Token, hardExit func(int), log *logger.Logger) func() {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go watch(ctx, ch, token, hardExit, log)
	return func() {
		signal.Stop(ch)
		cancel()
	}
}

func watch(ctx context.Context, ch <-chan os.Signal, token *Token, hardExit func(int), log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			if !token.Canceled() {
				log.Warn("termination requested", logger.Fields("signal", sig.String()))
				token.Cancel()
				continue
			}
			log.Error("second signal, exiting immediately", logger.Fields("signal", sig.String()))
			hardExit(1)
			return
		}
	}
}
