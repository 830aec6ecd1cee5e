package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/1rns/obsidian-math-booster/internal/pipeline"
	"github.com/1rns/obsidian-math-booster/internal/server"
	"github.com/1rns/obsidian-math-booster/internal/ui"
	"github.com/1rns/obsidian-math-booster/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP query API",
	Long: `Serves the vault index over a local HTTP API for editor plugins.

The server also watches the vault, so the index stays current while it
runs. Endpoints:

  GET  /health
  GET  /api/lookup?label=<document#label>
  GET  /api/suggest?q=<partial>&doc=<active>&limit=<n>
  GET  /api/documents/{docID}/entries
  GET  /api/settings?path=<path>
  GET  /api/stats
  POST /api/reindex

Examples:
  mathb serve
  mathb serve --addr 127.0.0.1:7399 --vault personal`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "127.0.0.1:7399", "Listen address")
	serveCmd.Flags().Bool("debug", false, "Enable debug logging")
	serveCmd.Flags().Bool("no-watch", false, "Serve without watching the vault")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	debug, _ := cmd.Flags().GetBool("debug")
	noWatch, _ := cmd.Flags().GetBool("no-watch")
	vaultPath := getVaultPath()

	logger, err := newLogger(debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := openIndex(vaultPath)
	if err != nil {
		return handleError(ErrDatabaseError, err, "Run 'mathb reindex' to rebuild the index")
	}
	defer db.Close()

	store, err := openStore(vaultPath)
	if err != nil {
		return handleError(ErrSettingsInvalid, err, "Fix .mathb/settings.yaml and try again")
	}

	pipe := pipeline.New(pipeline.Config{
		VaultPath: vaultPath,
		Database:  db,
		Settings:  store,
		Logger:    logger,
	})

	srv := server.New(db, store, pipe, logger)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx := cmd.Context()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return pipe.Start(ctx) })

	if !noWatch {
		w, werr := watcher.New(watcher.Config{
			VaultPath: vaultPath,
			Pipeline:  pipe,
			Logger:    logger,
		})
		if werr != nil {
			return werr
		}
		g.Go(func() error { return w.Start(ctx) })
	}

	g.Go(func() error {
		logger.Info("serving", zap.String("addr", addr), zap.String("vault", vaultPath))
		if serr := httpServer.ListenAndServe(); serr != nil && serr != http.ErrServerClosed {
			return serr
		}
		return nil
	})

	// Graceful shutdown when the command context is cancelled.
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	fmt.Printf("Serving %s on %s\n", ui.FilePath(vaultPath), ui.Accent.Render("http://"+addr))

	if err := g.Wait(); err != nil && err != ctx.Err() {
		return err
	}
	return nil
}
