package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"webcheck/internal/checks"
	"webcheck/internal/config"
	"webcheck/internal/report"
	"webcheck/internal/store"
)

func runCheck(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		return err
	}
	if err := applyCheckFlags(cmd, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	noSave, _ := cmd.Flags().GetBool("no-save")
	var st *store.Store
	var opts []checks.Option
	if !noSave {
		st, err = store.Open(cfg.DBPath)
		if err != nil {
			log.Warn("history disabled", "db", cfg.DBPath, "error", err)
		} else {
			defer st.Close()
			opts = append(opts, checks.WithHistory(st))
		}
	}

	runner := checks.NewRunner(cfg, opts...)
	out, _ := cmd.Flags().GetString("out")
	bulk, _ := cmd.Flags().GetBool("bulk")

	var reports []*report.Report
	if bulk {
		if filepath.IsAbs(out) {
			return fmt.Errorf("--out must be relative to each project with --bulk")
		}
		if reports, err = runner.RunBulk(cmd.Context(), dir); err != nil {
			return err
		}
		if len(reports) == 0 {
			log.Warn("no project directories found", "dir", dir)
		}
	} else {
		rep, err := runner.Run(cmd.Context(), dir)
		if err != nil {
			return err
		}
		reports = append(reports, rep)
	}

	failed := false
	for i, rep := range reports {
		if st != nil {
			if _, err := st.SaveRun(cmd.Context(), rep); err != nil {
				log.Warn("failed to save run", "project", rep.Project, "error", err)
			}
		}
		log.Info(report.Summary(rep), "project", rep.Project, "run_id", rep.RunID)

		target := out
		if bulk && out != "" {
			target = filepath.Join(rep.Project, out)
		}
		if target == "" && i > 0 {
			fmt.Println()
		}
		if err := writeReport(rep, format, target); err != nil {
			return err
		}
		if rep.Count(report.SeverityError) > 0 {
			failed = true
		}
	}

	if failed {
		return errFindings
	}
	return nil
}

// writeReport renders rep to path, or to stdout when path is empty.
func writeReport(rep *report.Report, format report.Format, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := report.Write(w, rep, format); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// applyCheckFlags overrides the configuration with the flags given on the
// command line.
func applyCheckFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if extended, _ := flags.GetBool("extended"); extended {
		cfg.Level = config.LevelFull
	}
	if flags.Changed("html") {
		cfg.Checks.HTML, _ = flags.GetBool("html")
	}
	if flags.Changed("outline") {
		cfg.Checks.Outline, _ = flags.GetBool("outline")
	}
	if flags.Changed("js") {
		cfg.Checks.JS, _ = flags.GetBool("js")
	}
	if flags.Changed("workers") {
		n, err := flags.GetInt("workers")
		if err != nil {
			return fmt.Errorf("failed to read --workers flag: %w", err)
		}
		cfg.Workers = n
	}
	return nil
}
