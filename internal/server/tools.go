package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"webcheck/internal/checks"
	"webcheck/internal/config"
	"webcheck/internal/report"
	"webcheck/util"
)

// Arguments structs

type CheckProjectArgs struct {
	Dir    string `json:"dir" jsonschema:"Absolute path of the project directory to check"`
	Level  string `json:"level,omitempty" jsonschema:"normal (default) or full; full adds the informational checks"`
	Format string `json:"format,omitempty" jsonschema:"Output format: text (default), json or markdown"`
	NoSave bool   `json:"no_save,omitempty" jsonschema:"Do not record the run in the history database"`
}

type CheckOutlineArgs struct {
	File string `json:"file" jsonschema:"Absolute path or file:// URI of the HTML file"`
}

type FindUndeclaredArgs struct {
	File   string   `json:"file" jsonschema:"Absolute path or file:// URI of the JavaScript or TypeScript file"`
	Ignore []string `json:"ignore,omitempty" jsonschema:"Global names that are never reported; defaults to the configured ignored globals"`
}

type ListRunsArgs struct {
	Project string `json:"project,omitempty" jsonschema:"Absolute project directory; empty lists every project"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of runs, newest first (default 20)"`
}

func (s *Server) registerTools() {
	addTool(s, &mcp.Tool{
		Name:        "check_project",
		Description: "Runs the HTML, outline and JavaScript convention checks over a project directory",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CheckProjectArgs) (*mcp.CallToolResult, any, error) {
		rep, err := s.checkProject(ctx, args)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}

		format := report.FormatText
		if args.Format != "" {
			if format, err = report.ParseFormat(args.Format); err != nil {
				return errorResult(err.Error()), nil, nil
			}
		}
		var b strings.Builder
		if err := report.Write(&b, rep, format); err != nil {
			return errorResult(fmt.Sprintf("Render failed: %v", err)), nil, nil
		}
		return textResult(b.String()), nil, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "check_outline",
		Description: "Validates the heading structure of an HTML file against its sectioning elements",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CheckOutlineArgs) (*mcp.CallToolResult, any, error) {
		path := util.URIToPath(args.File)
		_, res, err := checks.OutlineFile(path)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		if res.Empty() {
			return textResult("OK"), nil, nil
		}

		type outlineError struct {
			Kind string `json:"kind"`
			Line int    `json:"line"`
		}
		out := struct {
			File   string         `json:"file"`
			Errors []outlineError `json:"errors"`
		}{File: util.PathToURI(path)}
		for _, e := range res.Errors() {
			out.Errors = append(out.Errors, outlineError{Kind: e.Kind.String(), Line: e.Line})
		}
		jsonBytes, _ := json.MarshalIndent(out, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "find_undeclared",
		Description: "Lists variables of a script that are assigned or referenced without a declaration in scope",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindUndeclaredArgs) (*mcp.CallToolResult, any, error) {
		ignore := args.Ignore
		if ignore == nil {
			ignore = s.cfg.IgnoredGlobals
		}
		occs, err := checks.UndeclaredFile(util.URIToPath(args.File), ignore)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		if len(occs) == 0 {
			return textResult("No undeclared variables found."), nil, nil
		}

		type undeclared struct {
			Name   string `json:"name"`
			Kind   string `json:"kind"`
			Line   int    `json:"line"`
			Column int    `json:"column"`
		}
		var out []undeclared
		for _, o := range occs {
			out = append(out, undeclared{Name: o.Name, Kind: o.Kind.String(), Line: o.Loc.Line, Column: o.Loc.Column + 1})
		}
		jsonBytes, _ := json.MarshalIndent(out, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "list_runs",
		Description: "Lists earlier project runs from the history database",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListRunsArgs) (*mcp.CallToolResult, any, error) {
		if s.store == nil {
			return errorResult("No history database configured"), nil, nil
		}
		limit := args.Limit
		if limit <= 0 {
			limit = 20
		}
		project := args.Project
		if project != "" {
			if abs, err := filepath.Abs(project); err == nil {
				project = abs
			}
		}
		runs, err := s.store.ListRuns(ctx, project, limit)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		if len(runs) == 0 {
			return textResult("No runs recorded."), nil, nil
		}

		type runInfo struct {
			ID       int64  `json:"id"`
			Project  string `json:"project"`
			Age      string `json:"age"`
			Files    int    `json:"files"`
			Errors   int    `json:"errors"`
			Warnings int    `json:"warnings"`
			Infos    int    `json:"infos"`
		}
		var out []runInfo
		for _, r := range runs {
			out = append(out, runInfo{
				ID:       r.ID,
				Project:  r.Project,
				Age:      humanize.Time(r.StartedAt),
				Files:    r.Files,
				Errors:   r.Errors,
				Warnings: r.Warnings,
				Infos:    r.Infos,
			})
		}
		jsonBytes, _ := json.MarshalIndent(out, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})
}

func (s *Server) checkProject(ctx context.Context, args CheckProjectArgs) (*report.Report, error) {
	dir, err := filepath.Abs(util.URIToPath(args.Dir))
	if err != nil {
		return nil, err
	}
	if !s.begin(dir) {
		return nil, fmt.Errorf("a check of %s is already in progress", dir)
	}
	defer s.end(dir)

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	cfg.DBPath = s.cfg.DBPath
	if args.Level != "" {
		cfg.Level = config.Level(args.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []checks.Option
	if s.store != nil {
		opts = append(opts, checks.WithHistory(s.store))
	}
	rep, err := checks.NewRunner(cfg, opts...).Run(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("check failed: %w", err)
	}

	if s.store != nil && !args.NoSave {
		if _, err := s.store.SaveRun(ctx, rep); err != nil {
			s.log.Warn("failed to save run", "project", dir, "error", err)
		}
	}
	s.log.Info("project checked", "project", dir, "files", rep.Files, "findings", len(rep.Findings), "run_id", rep.RunID)
	return rep, nil
}
