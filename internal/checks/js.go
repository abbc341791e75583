package checks

import (
	"fmt"

	"webcheck/internal/config"
	"webcheck/internal/jsparse"
	"webcheck/internal/jsscope"
	"webcheck/internal/report"
)

func checkScript(file string, f *jsparse.File, cfg config.Config) []report.Finding {
	var out []report.Finding
	add := func(check, severity string, occ jsscope.Occurrence, msg string) {
		out = append(out, report.NewFinding(file, report.CategoryJS, check, severity,
			occ.Loc.Line, occ.Loc.Column+1, occ.Name, msg))
	}

	tree := jsscope.Build(f.Program)

	for _, p := range f.EventProps {
		out = append(out, report.NewFinding(file, report.CategoryJS, "event-property", report.SeverityWarning,
			p.Loc.Line, p.Loc.Column+1, p.Name, fmt.Sprintf("DOM level 0 handler .%s", p.Name)))
	}
	for _, v := range jsscope.VarDeclarations(tree) {
		add("var-declarations", report.SeverityWarning, v,
			fmt.Sprintf("var %s (depth %d)", v.Name, tree.Scope(v.Scope).Depth))
	}
	for _, v := range jsscope.GlobalDeclarations(tree) {
		add("global-declarations", report.SeverityInfo, v,
			fmt.Sprintf("%s %s is global", formName(v), v.Name))
	}

	if !cfg.Full() {
		return out
	}

	sourceType := "script"
	if f.Program.Module {
		sourceType = "module"
	}
	out = append(out, report.NewFinding(file, report.CategoryJS, "source-type", report.SeverityInfo,
		0, 0, sourceType, "source type "+sourceType))

	if len(f.Program.Body) > 0 {
		msg := `missing "use strict"`
		if len(f.Program.Directives) > 0 && f.Program.Directives[0] == "use strict" {
			msg = `"use strict" present`
		}
		out = append(out, report.NewFinding(file, report.CategoryJS, "strict-mode", report.SeverityInfo,
			0, 0, "use strict", msg))
	}

	for _, v := range jsscope.Undeclared(tree, jsscope.WithExclusions(cfg.IgnoredGlobals...)) {
		msg := v.Name + " is not declared"
		if v.Kind == jsscope.Assignment {
			msg = v.Name + " is assigned without a declaration"
		}
		add("undeclared", report.SeverityWarning, v, msg)
	}
	return out
}

func formName(v jsscope.Occurrence) string {
	if s := v.Form.String(); s != "" {
		return s
	}
	return v.Kind.String()
}
