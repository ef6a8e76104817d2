package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-match-elo/internal/features"
	"github.com/pable/go-match-elo/internal/history"
	"github.com/pable/go-match-elo/internal/report"
	"github.com/pable/go-match-elo/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the ledger. Competitor histories stay cached for the whole session. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// session holds what a shell keeps open between commands.
type session struct {
	db      *storage.DB
	index   *history.Index
	builder *features.Builder
}

func runShell(cmd *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ix := newIndex(db)
	s := &session{db: db, index: ix, builder: newBuilder(ix)}
	ctx := cmd.Context()

	cGreeting.Println("matchelo shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("matchelo")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]
		if name == "exit" || name == "quit" {
			return nil
		}
		if err := s.dispatch(ctx, name, args); err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return nil
}

func (s *session) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "help":
		shellHelp()
	case "list":
		prefix := ""
		if len(args) > 0 {
			prefix = args[0]
		}
		matches, err := s.db.MatchesByPrefix(ctx, prefix, 50)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			cMuted.Println("No matches found.")
			return nil
		}
		report.PrintMatchTable(os.Stdout, matches, "")
	case "top":
		n := 25
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("top: %q is not a number", args[0])
			}
			n = v
		}
		rows, err := s.db.TopRatings(ctx, n)
		if err != nil {
			return err
		}
		report.PrintLeaderboard(os.Stdout, rows)
	case "player":
		if len(args) == 0 {
			return fmt.Errorf("usage: player <name> [<match_id>]")
		}
		f := contextFlags{serveMargin: 10}
		if len(args) > 1 {
			f.at = args[1]
		}
		return showPlayer(ctx, os.Stdout, s.index, args[0], &f, 15)
	case "trend":
		if len(args) == 0 {
			return fmt.Errorf("usage: trend <name>")
		}
		return showTrend(ctx, os.Stdout, s.index, args[0], 0)
	case "h2h":
		if len(args) < 2 {
			return fmt.Errorf("usage: h2h <name> <name>")
		}
		return showHeadToHead(ctx, os.Stdout, s.index, args[0], args[1], &contextFlags{serveMargin: 10})
	case "features":
		if len(args) == 0 {
			return fmt.Errorf("usage: features <match_id> [<label filter>]")
		}
		filter := ""
		if len(args) > 1 {
			filter = args[1]
		}
		return showFeatures(ctx, os.Stdout, s.db, s.builder, args[0], filter)
	case "cache":
		st := s.index.Stats()
		fmt.Printf("histories cached: %d  builds: %d  hits: %d\n", s.index.Len(), st.Builds, st.Hits)
	case "reload":
		s.index.Reset()
		cMuted.Println("history cache cleared")
	default:
		cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list [<match_id prefix>]", "list the most recent matches"},
		{"top [<n>]", "ratings leaderboard"},
		{"player <name> [<match_id>]", "history and conditioned stats, optionally as of a match"},
		{"trend <name>", "rating after each match"},
		{"h2h <name> <name>", "head-to-head record"},
		{"features <match_id> [<filter>]", "feature vector from both sides"},
		{"cache", "history cache statistics"},
		{"reload", "drop cached histories (after an import or rate)"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-34s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}
