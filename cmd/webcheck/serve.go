package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"webcheck/internal/api"
	"webcheck/internal/server"
	"webcheck/internal/store"
)

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	cfg, err := loadConfig(cmd, cwd)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Warn("history disabled", "db", cfg.DBPath, "error", err)
		st = nil
	} else {
		defer st.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.New(cfg, st, log, version).Run(ctx)
}

func runAPI(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	cfg, err := loadConfig(cmd, "")
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.APIAddr = addr
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	httpServer := &http.Server{
		Addr:         cfg.APIAddr,
		Handler:      api.NewServer(st, log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting webcheck api", "addr", cfg.APIAddr, "db", cfg.DBPath)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	project := ""
	if all, _ := cmd.Flags().GetBool("all"); !all {
		if project, err = filepath.Abs(dir); err != nil {
			return err
		}
	}
	limit, _ := cmd.Flags().GetInt("limit")

	runs, err := st.ListRuns(cmd.Context(), project, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tWHEN\tFILES\tSIZE\tERRORS\tWARNINGS\tNOTES\tPROJECT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, humanize.Time(r.StartedAt), humanize.Comma(int64(r.Files)), humanize.Bytes(uint64(r.Bytes)),
			r.Errors, r.Warnings, r.Infos, r.Project)
	}
	return tw.Flush()
}
