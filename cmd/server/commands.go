package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"compliance-ledger/internal/accesscontrol"
	"compliance-ledger/internal/database"
	"compliance-ledger/internal/handlers"
	"compliance-ledger/internal/ledger"
	"compliance-ledger/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zapLogger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer zapLogger.Sync() //nolint:errcheck
			defer database.Close(db)

			if err := database.Seed(db, cfg.AdminUsername, cfg.AdminPassword, zapLogger); err != nil {
				zapLogger.Error("failed to seed database", zap.Error(err))
				return err
			}

			enforcer, err := accesscontrol.New(db, zapLogger)
			if err != nil {
				zapLogger.Error("failed to set up access control", zap.Error(err))
				return err
			}

			router := server.NewRouter(server.Deps{
				Config:   cfg,
				DB:       db,
				Handlers: handlers.New(ledger.New(db, zapLogger), db, zapLogger),
				Enforcer: enforcer,
				Log:      zapLogger,
			})

			srv := &http.Server{
				Addr:              ":" + cfg.ServerPort,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				zapLogger.Info("server started", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-serveErr:
				if err != nil {
					zapLogger.Error("server error", zap.Error(err))
					return err
				}
				return nil
			case <-ctx.Done():
			}

			zapLogger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zapLogger.Error("graceful shutdown failed", zap.Error(err))
				return err
			}
			zapLogger.Info("server gracefully stopped")
			return nil
		},
	}
}

func exportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export-products",
		Short: "Write every product as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, zapLogger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer zapLogger.Sync() //nolint:errcheck
			defer database.Close(db)

			if err := exportProducts(cmd.Context(), ledger.New(db, zapLogger), output, cmd.OutOrStdout()); err != nil {
				zapLogger.Error("export failed", zap.String("output", output), zap.Error(err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "file to write, - for stdout")
	return cmd
}

type productExporter interface {
	ExportProducts(ctx context.Context, w io.Writer) error
}

var createOutput = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// exportProducts writes the CSV to stdout, or to output unless it is empty or "-". A file
// that fails to close is reported, since the last rows may not have been flushed.
func exportProducts(ctx context.Context, e productExporter, output string, stdout io.Writer) (err error) {
	if output == "" || output == "-" {
		return e.ExportProducts(ctx, stdout)
	}

	f, err := createOutput(output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", output, cerr)
		}
	}()
	return e.ExportProducts(ctx, f)
}

func importCommand() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "import-products",
		Short: "Append the products of a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, zapLogger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer zapLogger.Sync() //nolint:errcheck
			defer database.Close(db)

			f, err := os.Open(input)
			if err != nil {
				return err
			}
			defer f.Close()

			n, err := ledger.New(db, zapLogger).ImportProducts(cmd.Context(), f)
			if err != nil {
				zapLogger.Error("import failed", zap.String("file", input), zap.Error(err))
				return err
			}
			zapLogger.Info("products imported", zap.String("file", input), zap.Int("rows", n))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d products\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "file", "f", "", "CSV file to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
