package resolver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
)

// Terminal prompts the operator on stdin/stdout. When stdin is not a TTY it
// behaves like Batch, so scheduled runs never block on a prompt.
type Terminal struct {
	in    io.Reader
	out   io.Writer
	isTTY bool
}

// NewTerminal builds a resolver against the process's real terminal.
func NewTerminal() *Terminal {
	return &Terminal{
		in:    os.Stdin,
		out:   os.Stdout,
		isTTY: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}
}

// newTerminalForTest wires explicit streams and TTY state.
func newTerminalForTest(in io.Reader, out io.Writer, isTTY bool) *Terminal {
	return &Terminal{in: in, out: out, isTTY: isTTY}
}

// Resolve prompts and reads one answer. Numeric input selects an option by
// position; empty input takes the default; anything else is a free answer.
func (t *Terminal) Resolve(ctx context.Context, q Question) (Answer, error) {
	if !t.isTTY {
		return Batch{}.Resolve(ctx, q)
	}
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}

	if q.Context != "" {
		fmt.Fprintln(t.out, q.Context)
	}
	for i, option := range q.Options {
		marker := " "
		if option == q.Default {
			marker = "*"
		}
		fmt.Fprintf(t.out, "  %s %d) %s\n", marker, i+1, option)
	}
	fmt.Fprintf(t.out, "%s ", q.Prompt)

	reader := bufio.NewReader(t.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return Answer{}, fmt.Errorf("read answer: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return Answer{Value: q.fallback(), Confirmed: true}, nil
	}
	if index, convErr := strconv.Atoi(line); convErr == nil && index >= 1 && index <= len(q.Options) {
		return Answer{Value: q.Options[index-1], Confirmed: true}, nil
	}
	return Answer{Value: line, Confirmed: true}, nil
}
