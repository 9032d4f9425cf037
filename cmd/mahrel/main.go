// Command mahrel is the CLI front end for the multi-attribute linear-hash
// store: one-shot subcommands for scripting, plus an interactive REPL for
// exploring a single relation (chzyer/readline powers the REPL's line
// editing and history, the way novasql's client does for its SQL console).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/linhash/mahrel/internal/config"
	"github.com/linhash/mahrel/pager"
	"github.com/linhash/mahrel/relation"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var cmdErr error
	switch cmd {
	case "create":
		cmdErr = cmdCreate(cfg, args)
	case "insert":
		cmdErr = cmdInsert(cfg, args)
	case "select":
		cmdErr = cmdSelect(cfg, args)
	case "stats":
		cmdErr = cmdStats(cfg, args)
	case "repl":
		cmdErr = runREPL(cfg, args)
	default:
		usage()
		os.Exit(1)
	}
	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", cmdErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  mahrel create <name> <nattrs> <npages> <depth> <cv>
  mahrel insert <name> <tuple>
  mahrel select <name> <pattern>
  mahrel stats <name>
  mahrel repl <name>`)
}

// configPath returns MAHREL_CONFIG when set, otherwise ~/.mahrelrc.
func configPath() string {
	if p := os.Getenv("MAHREL_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".mahrelrc")
}

// resolvePath resolves a bare relation name against the configured relation
// directory; a name that already looks like a path is used as-is.
func resolvePath(cfg *config.Config, name string) string {
	if cfg.Relation.Memory {
		return name
	}
	if filepath.IsAbs(name) || strings.ContainsRune(name, os.PathSeparator) {
		return name
	}
	return filepath.Join(cfg.Relation.Dir, name)
}

func cmdCreate(cfg *config.Config, args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("create expects <name> <nattrs> <npages> <depth> <cv>")
	}
	nattrs, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("nattrs: %w", err)
	}
	npages, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("npages: %w", err)
	}
	depth, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("depth: %w", err)
	}
	r, err := relation.NewRelation(resolvePath(cfg, args[0]), cfg.Relation.Memory, nattrs, npages, depth, args[4])
	if err != nil {
		return err
	}
	return r.Close()
}

func cmdInsert(cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("insert expects <name> <tuple>")
	}
	r, err := relation.OpenRelation(resolvePath(cfg, args[0]), cfg.Relation.Memory)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = r.Insert(args[1])
	return err
}

func cmdSelect(cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("select expects <name> <pattern>")
	}
	r, err := relation.OpenRelation(resolvePath(cfg, args[0]), cfg.Relation.Memory)
	if err != nil {
		return err
	}
	defer r.Close()
	return selectAndPrint(r, args[1], os.Stdout)
}

func selectAndPrint(r *relation.Relation, pattern string, w *os.File) error {
	q, err := r.NewQuery(pattern)
	if err != nil {
		return err
	}
	n := 0
	for {
		fields, ok, err := q.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = string(f)
		}
		fmt.Fprintln(w, strings.Join(parts, ","))
		n++
	}
	fmt.Fprintf(w, "(%d rows)\n", n)
	return nil
}

func cmdStats(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("stats expects <name>")
	}
	r, err := relation.OpenRelation(resolvePath(cfg, args[0]), cfg.Relation.Memory)
	if err != nil {
		return err
	}
	defer r.Close()
	stats, err := r.Stats()
	if err != nil {
		return err
	}
	printStats(os.Stdout, cfg, stats)
	return nil
}

func printStats(w *os.File, cfg *config.Config, s relation.Stats) {
	fmt.Fprintf(w, "nattrs=%d d=%d sp=%d npages=%d ntups=%d c=%d insertion=%d\n",
		s.NAttrs, s.D, s.SP, s.NPages, s.NTups, s.C, s.Insertion)
	header := []string{"bucket", "page", "ntuples", "free", "ovflow"}
	var rows [][]string
	for bucket, chain := range s.Buckets {
		for _, page := range chain {
			ovflow := cfg.Display.NullValue
			if page.Ovflow != pager.NoPage {
				ovflow = fmt.Sprintf("%d", page.Ovflow)
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", bucket),
				fmt.Sprintf("%d", page.ID),
				fmt.Sprintf("%d", page.NTuples),
				fmt.Sprintf("%d", page.FreeBytes),
				ovflow,
			})
		}
	}
	printTable(w, header, rows)
}

func getWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func printTable(w *os.File, header []string, rows [][]string) {
	widths := getWidths(header, rows)
	printTableRow(w, header, widths)
	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		printTableRow(w, row, widths)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "(0 rows)")
	}
}

func printTableRow(w *os.File, row []string, widths []int) {
	for i, cell := range row {
		if i > 0 {
			fmt.Fprint(w, " | ")
		}
		fmt.Fprintf(w, "%-*s", widths[i], cell)
	}
	fmt.Fprintln(w)
}

// runREPL opens a single relation and lets the user issue insert/select/
// stats commands against it interactively until they exit.
func runREPL(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("repl expects <name>")
	}
	r, err := relation.OpenRelation(resolvePath(cfg, args[0]), cfg.Relation.Memory)
	if err != nil {
		return err
	}
	defer r.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "mahrel> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		HistoryFile:     defaultHistoryPath(),
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("mahrel REPL. Commands: insert <tuple> | select <pattern> | stats | exit")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == ".exit" {
			return nil
		}
		if err := dispatchREPLLine(r, cfg, line); err != nil {
			fmt.Printf("error: %s\n", err)
		}
	}
}

func dispatchREPLLine(r *relation.Relation, cfg *config.Config, line string) error {
	fields := strings.SplitN(line, " ", 2)
	switch fields[0] {
	case "insert":
		if len(fields) != 2 {
			return fmt.Errorf("insert expects a tuple")
		}
		_, err := r.Insert(fields[1])
		return err
	case "select":
		if len(fields) != 2 {
			return fmt.Errorf("select expects a pattern")
		}
		return selectAndPrint(r, fields[1], os.Stdout)
	case "stats":
		stats, err := r.Stats()
		if err != nil {
			return err
		}
		printStats(os.Stdout, cfg, stats)
		return nil
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".mahrel_history"
	}
	return filepath.Join(home, ".mahrel_history")
}
