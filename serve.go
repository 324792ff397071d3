package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/logging"
	"github.com/deemkeen/chirp/middleware"
	"github.com/deemkeen/chirp/util"
	"github.com/deemkeen/chirp/web"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the client over SSH, and the read API over HTTP when withWeb is set",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	conf, database, err := loadStore()
	if err != nil {
		log.Error("startup failed", "err", err)
		return err
	}
	defer database.Close()

	s, err := wish.NewServer(
		wish.WithAddress(fmt.Sprintf("%s:%d", conf.Conf.Host, conf.Conf.SshPort)),
		wish.WithHostKeyPath(util.ResolveFilePathWithSubdir(".ssh", "hostkey")),
		wish.WithPublicKeyAuth(publicKeyHandler),
		wish.WithMiddleware(
			middleware.MainTui(database, conf),
			middleware.AuthMiddleware(database),
			logging.Middleware(), // last middleware executed first
		),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 2)

	log.Info("starting ssh server", "host", conf.Conf.Host, "port", conf.Conf.SshPort)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errs <- err
		}
	}()

	if conf.Conf.WithWeb {
		go func() {
			if err := web.Router(ctx, conf, database); err != nil {
				errs <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err = <-errs:
		log.Error("server failed", "err", err)
	}

	log.Info("stopping ssh server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if shutdownErr := s.Shutdown(shutdownCtx); shutdownErr != nil && !errors.Is(shutdownErr, ssh.ErrServerClosed) {
		return errors.Join(err, shutdownErr)
	}
	return err
}

func publicKeyHandler(ssh.Context, ssh.PublicKey) bool {
	return true
}
