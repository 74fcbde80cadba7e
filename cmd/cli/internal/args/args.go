// Package args parses the repeated column=value flags of the row commands
// and the interactive prompts.
package args

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/redbco/redb-cql/pkg/overlay"
	"github.com/redbco/redb-cql/pkg/query"
)

// SplitAssignment splits "column=value" at the first '='. The column is
// trimmed; the value is kept as typed since spaces matter for text columns.
func SplitAssignment(s string) (string, string, error) {
	column, value, ok := strings.Cut(s, "=")
	column = strings.TrimSpace(column)
	if !ok || column == "" {
		return "", "", fmt.Errorf("invalid assignment %q, expected column=value", s)
	}
	return column, value, nil
}

// Assignments parses column=value pairs into form values. A column given
// twice is an error.
func Assignments(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		column, value, err := SplitAssignment(p)
		if err != nil {
			return nil, err
		}
		if _, dup := values[column]; dup {
			return nil, fmt.Errorf("column %s given more than once", column)
		}
		values[column] = value
	}
	return values, nil
}

// Filters parses column=value pairs into equality filters, in order.
func Filters(pairs []string) ([]query.Filter, error) {
	filters := make([]query.Filter, 0, len(pairs))
	for _, p := range pairs {
		column, value, err := SplitAssignment(p)
		if err != nil {
			return nil, err
		}
		filters = append(filters, query.Eq(column, value))
	}
	return filters, nil
}

// OverlayFields parses "key:type" or "key:type:required" specs.
func OverlayFields(specs []string) ([]overlay.Field, error) {
	fields := make([]overlay.Field, 0, len(specs))
	for _, spec := range specs {
		key, rest, ok := strings.Cut(spec, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, expected key:type[:required]", spec)
		}
		f := overlay.Field{Key: key, Type: strings.TrimSpace(rest)}
		if t, flag, ok := strings.Cut(f.Type, ":"); ok {
			if strings.TrimSpace(flag) != "required" {
				return nil, fmt.Errorf("invalid field %q: unknown flag %q", spec, flag)
			}
			f.Type = strings.TrimSpace(t)
			f.Required = true
		}
		if f.Type == "" {
			return nil, fmt.Errorf("invalid field %q: type is required", spec)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// Prompt prints q and reads one trimmed line.
func Prompt(r *bufio.Reader, q string) string {
	fmt.Print(q)
	res, _ := r.ReadString('\n')
	return strings.TrimSpace(res)
}

// PromptDefault prompts with a default shown in brackets.
func PromptDefault(r *bufio.Reader, q, def string) string {
	if def != "" {
		q = fmt.Sprintf("%s [%s]: ", q, def)
	} else {
		q += ": "
	}
	if v := Prompt(r, q); v != "" {
		return v
	}
	return def
}

// ReadPassword reads a password without echo.
func ReadPassword(q string) (string, error) {
	fmt.Print(q)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stdout)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %v", err)
	}
	return string(pw), nil
}
