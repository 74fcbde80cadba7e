package query

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/redbco/redb-cql/cmd/cli/internal/common"
	"github.com/redbco/redb-cql/cmd/cli/internal/output"
)

// Options control how a statement's result is printed.
type Options struct {
	PageSize  int
	PageToken string
	Extended  bool
	MaxWidth  int
}

// Run executes a free-form statement. A statement of "-" is read from stdin.
func Run(ctx context.Context, statement string, opts Options) error {
	if statement == "-" {
		text, err := readStatement(os.Stdin)
		if err != nil {
			return err
		}
		statement = text
	}

	s, err := common.Connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.PageSize > 0 {
		if _, err := s.Engine.SetPageSize(ctx, opts.PageSize); err != nil {
			return err
		}
	}
	res, err := s.Engine.RawQuery(ctx, statement, opts.PageToken)
	if err != nil {
		return err
	}
	return output.Query(os.Stdout, res, opts.Extended, common.CellWidth(opts.MaxWidth))
}

func readStatement(r io.Reader) (string, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("failed to read statement: %v", err)
	}
	return strings.TrimSpace(b.String()), nil
}
