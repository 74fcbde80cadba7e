package interactive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/redbco/redb-cql/cmd/cli/internal/common"
	"github.com/redbco/redb-cql/cmd/cli/internal/output"
)

// Start connects to the active profile and runs the shell until exit or
// Ctrl+D. table, when not empty, is selected before the first prompt.
func Start(ctx context.Context, table string) error {
	sess, err := common.Connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	sh := NewShell(sess.Engine, sess.Profile.DefaultKeyspace, os.Stdout)
	sh.maxWidth = common.CellWidth(0)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.Prompt(),
		HistoryFile:     historyFile(),
		AutoComplete:    sh.completer(ctx),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize interactive mode: %v", err)
	}
	defer rl.Close()

	fmt.Printf("Connected to profile '%s'.\n", sess.Profile.Name)
	fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to exit.")
	fmt.Println()

	if table != "" {
		if _, err := sh.Exec(ctx, "use "+table); err != nil {
			output.Error(os.Stderr, err)
		}
	}

	for {
		rl.SetPrompt(sh.Prompt())

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					fmt.Println("Type 'exit' or 'quit' to exit")
				}
				continue
			} else if err == io.EOF {
				fmt.Println("exit")
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "clear" {
			fmt.Print("\033[H\033[2J")
			continue
		}

		more, err := sh.Exec(ctx, line)
		if err != nil {
			output.Error(os.Stderr, err)
		}
		if !more {
			fmt.Println("Goodbye!")
			break
		}
	}
	return nil
}

// historyFile keeps shell history next to the config file.
func historyFile() string {
	cfg := common.Config()
	if cfg == nil || cfg.Path() == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(cfg.Path()), "shell_history")
}

// completer offers the shell commands, with table names after "use".
func (s *Shell) completer(ctx context.Context) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, c := range shellCommands {
		if c.name == "use" || c.name == "tables" {
			items = append(items, readline.PcItem(c.name, readline.PcItemDynamic(s.tableNames(ctx))))
			continue
		}
		items = append(items, readline.PcItem(c.name))
	}
	return readline.NewPrefixCompleter(items...)
}

func (s *Shell) tableNames(ctx context.Context) func(string) []string {
	return func(string) []string {
		keyspaces, err := s.engine.Keyspaces(ctx)
		if err != nil {
			return nil
		}
		var names []string
		for _, ks := range keyspaces {
			names = append(names, ks)
			tables, err := s.engine.Tables(ctx, ks)
			if err != nil {
				continue
			}
			for _, t := range tables {
				if ks == s.defaultKeyspace {
					names = append(names, t)
				}
				names = append(names, ks+"."+t)
			}
		}
		return names
	}
}

// parseCommandLine splits a line into arguments, respecting quotes.
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)
	escaped := false

	for _, ch := range line {
		switch {
		case escaped:
			if ch != '"' && ch != '\'' && ch != '\\' {
				current.WriteRune('\\')
			}
			current.WriteRune(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case (ch == '"' || ch == '\'') && !inQuote:
			inQuote = true
			quoteChar = ch
		case ch == quoteChar && inQuote:
			inQuote = false
			quoteChar = 0
		case (ch == ' ' || ch == '\t') && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}
	if escaped {
		current.WriteRune('\\')
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}

	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	return args, nil
}
