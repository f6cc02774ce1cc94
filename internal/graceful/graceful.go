package graceful

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"plainEvents/internal/utils/logger/sl"
)

// Operation — функция корректного завершения одного сервиса.
type Operation func(ctx context.Context) error

// GracefulShutdown ждёт SIGINT/SIGTERM/SIGHUP и параллельно вызывает все ops,
// ограничивая их общим таймаутом. Возвращаемый канал закрывается после завершения.
func GracefulShutdown(ctx context.Context, timeout time.Duration, ops map[string]Operation, log *slog.Logger) <-chan struct{} {
	wait := make(chan struct{})

	go func() {
		s := make(chan os.Signal, 1)
		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

		select {
		case sig := <-s:
			log.Info("shutting down", slog.String("signal", sig.String()))
		case <-ctx.Done():
			log.Info("shutting down", slog.String("reason", "context done"))
		}

		timeoutFunc := time.AfterFunc(timeout, func() {
			log.Error("timeout elapsed, force exit", slog.Duration("timeout", timeout))
			os.Exit(1)
		})
		defer timeoutFunc.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var wg sync.WaitGroup
		for key, op := range ops {
			wg.Add(1)
			go func(name string, op Operation) {
				defer wg.Done()

				log.Info("cleaning up", slog.String("service", name))
				if err := op(shutdownCtx); err != nil {
					log.Error("clean up failed", slog.String("service", name), sl.Err(err))
					return
				}
				log.Info("was shutdown gracefully", slog.String("service", name))
			}(key, op)
		}

		wg.Wait()
		close(wait)
	}()

	return wait
}
