package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"webcheck/internal/checks"
	"webcheck/internal/jsscope"
	"webcheck/internal/outline"
)

func runOutline(cmd *cobra.Command, args []string) error {
	skel, res, err := checks.OutlineFile(args[0])
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"skeleton": skel, "errors": res})
	}

	printSkeleton(skel, 0)
	fmt.Println()
	if res.Empty() {
		fmt.Println("OK")
		return nil
	}
	for _, e := range res.Errors() {
		fmt.Printf("%s\t%d\n", e.Kind, e.Line)
	}
	return nil
}

func printSkeleton(n *outline.Node, indent int) {
	if n.Kind != outline.Root {
		fmt.Printf("%s<%s> %d\n", strings.Repeat("  ", indent), n.Tag, n.Line)
		indent++
	}
	for _, c := range n.Children {
		printSkeleton(c, indent)
	}
}

func runScopes(cmd *cobra.Command, args []string) error {
	tree, err := checks.ScopeFile(args[0])
	if err != nil {
		return err
	}
	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		pp.Println(tree)
		return nil
	}

	tree.Walk(0, func(s *jsscope.Scope) bool {
		pad := strings.Repeat("  ", s.Depth)
		fmt.Printf("%s[%s] depth %d\n", pad, s.Kind, s.Depth)
		for _, v := range s.Vars {
			form := ""
			if f := v.Form.String(); f != "" {
				form = " " + f
			}
			fmt.Printf("%s  %-20s %s%s %d:%d\n", pad, v.Name, v.Kind, form, v.Loc.Line, v.Loc.Column+1)
		}
		return true
	})
	return nil
}

func runUndeclared(cmd *cobra.Command, args []string) error {
	ignore, _ := cmd.Flags().GetStringSlice("ignore")
	if !cmd.Flags().Changed("ignore") {
		cfg, err := loadConfig(cmd, "")
		if err != nil {
			return err
		}
		ignore = cfg.IgnoredGlobals
	}

	occs, err := checks.UndeclaredFile(args[0], ignore)
	if err != nil {
		return err
	}
	if len(occs) == 0 {
		fmt.Println("OK")
		return nil
	}
	for _, o := range occs {
		fmt.Printf("%-20s\t%d:%d\t%s\n", o.Name, o.Loc.Line, o.Loc.Column+1, o.Kind)
	}
	return nil
}
