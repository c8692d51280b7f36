package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"pullconf/internal/catalog"
	"pullconf/pkg/logging"
)

// reloadDebounce is how long the watcher waits for further declaration
// changes before triggering a recompilation.
const reloadDebounce = 500 * time.Millisecond

// App is the pullconfd process: configuration, the catalog store and the
// HTTPS server around it.
type App struct {
	config *Config
	store  *Store
}

func NewApp(config *Config) *App {
	return &App{config: config, store: NewStore()}
}

// Run compiles the initial state, binds the TLS listener and serves until a
// termination signal arrives. SIGHUP and changes below the resource
// directory trigger a reload; a failed reload keeps the current state.
func (a *App) Run(ctx context.Context) error {
	if err := a.compile(); err != nil {
		return err
	}

	certificate, err := tls.LoadX509KeyPair(a.config.TLSCertificate, a.config.TLSPrivateKey)
	if err != nil {
		return fmt.Errorf("loading TLS key pair: %w", err)
	}

	listener, err := net.Listen("tcp", a.config.ListenOn)
	if err != nil {
		return fmt.Errorf("binding %s: %w", a.config.ListenOn, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := &http.Server{
		Handler:           NewHandler(a.store, a.config.AssetDir),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logging.Info("http", "serving %d clients on https://%s", a.store.Clients(), a.config.ListenOn)
		err := server.Serve(tls.NewListener(listener, &tls.Config{
			Certificates: []tls.Certificate{certificate},
			MinVersion:   tls.VersionTLS12,
		}))
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		defer cancel()
		return a.handleSignals(ctx, server)
	})

	group.Go(func() error {
		return a.watchDeclarations(ctx)
	})

	daemon.SdNotify(false, daemon.SdNotifyReady)
	return group.Wait()
}

// compile loads and compiles the declarations and swaps the store on
// success.
func (a *App) compile() error {
	declarations, err := catalog.Load(a.config.ResourceDir)
	if err != nil {
		return err
	}
	state, err := catalog.Compile(declarations)
	if err != nil {
		return err
	}
	return a.store.Swap(state)
}

// reload recompiles after startup. Unlike the initial compilation a failure
// is not fatal, the previous generation keeps serving.
func (a *App) reload() {
	daemon.SdNotify(false, daemon.SdNotifyReloading)
	defer daemon.SdNotify(false, daemon.SdNotifyReady)

	if err := a.compile(); err != nil {
		logging.Error("configuration", err, "keeping the current configuration as reload failed")
		return
	}
	logging.Info("configuration", "reloaded declarations, serving %d clients", a.store.Clients())
}

func (a *App) handleSignals(ctx context.Context, server *http.Server) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-signals:
			if sig == syscall.SIGHUP {
				logging.Info("configuration", "received SIGHUP, reloading declarations")
				a.reload()
				continue
			}

			logging.Info("http", "received %s, shutting down", sig)
			daemon.SdNotify(false, daemon.SdNotifyStopping)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		}
	}
}

// watchDeclarations reloads when declaration files change on disk, debounced
// so an editor writing several files triggers one recompilation.
func (a *App) watchDeclarations(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating declaration watcher: %w", err)
	}
	defer watcher.Close()

	for _, sub := range []string{"clients", "groups"} {
		if err := watcher.Add(filepath.Join(a.config.ResourceDir, sub)); err != nil {
			return fmt.Errorf("watching declaration directory: %w", err)
		}
	}

	debounce := time.NewTimer(reloadDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				debounce.Reset(reloadDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("configuration", "declaration watcher reported: %v", err)
		case <-debounce.C:
			logging.Info("configuration", "declarations changed on disk, reloading")
			a.reload()
		}
	}
}
