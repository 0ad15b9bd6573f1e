package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"consultation-booking/internal/consultation/message"
)

var (
	errBack        = errors.New("back")
	errInterrupted = errors.New("interrupted")
)

// prompter reads answers line by line. Typing "<" at any prompt goes back
// one step.
type prompter struct {
	ctx   context.Context
	out   io.Writer
	lines <-chan string
}

func newPrompter(ctx context.Context, in io.Reader, out io.Writer) *prompter {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return &prompter{ctx: ctx, out: out, lines: lines}
}

func (p *prompter) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

// ask returns current when the answer is empty.
func (p *prompter) ask(label, current string) (string, error) {
	if current != "" {
		p.printf("%s [%s]: ", label, current)
	} else {
		p.printf("%s: ", label)
	}

	select {
	case <-p.ctx.Done():
		return "", errInterrupted
	case line, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "<":
			return "", errBack
		case line == "":
			return current, nil
		default:
			return line, nil
		}
	}
}

func (p *prompter) listOptions(opts []message.Option) {
	for i, o := range opts {
		p.printf("  %d) %s\n", i+1, o.Label)
	}
}

// choose accepts an option number or id.
func (p *prompter) choose(label string, table *message.Table, current string) (string, error) {
	opts := table.Options()
	p.printf("%s\n", label)
	p.listOptions(opts)

	for {
		answer, err := p.ask("Choice", table.Label(current))
		if err != nil {
			return "", err
		}
		if answer == table.Label(current) && current != "" {
			return current, nil
		}
		if id, ok := pick(opts, answer); ok {
			return id, nil
		}
		p.printf("Please enter a number between 1 and %d.\n", len(opts))
	}
}

// chooseMany accepts comma-separated option numbers and keeps their order.
func (p *prompter) chooseMany(label string, table *message.Table, current []string) ([]string, error) {
	opts := table.Options()
	p.printf("%s (comma-separated)\n", label)
	p.listOptions(opts)

	for {
		answer, err := p.ask("Choices", strings.Join(current, ","))
		if err != nil {
			return nil, err
		}
		if answer == strings.Join(current, ",") && len(current) > 0 {
			return current, nil
		}

		var ids []string
		valid := true
		for _, part := range strings.Split(answer, ",") {
			id, ok := pick(opts, strings.TrimSpace(part))
			if !ok {
				valid = false
				break
			}
			ids = append(ids, id)
		}
		if valid && len(ids) > 0 {
			return ids, nil
		}
		p.printf("Please enter numbers between 1 and %d.\n", len(opts))
	}
}

func pick(opts []message.Option, answer string) (string, bool) {
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(opts) {
			return opts[n-1].ID, true
		}
		return "", false
	}
	for _, o := range opts {
		if o.ID == answer {
			return o.ID, true
		}
	}
	return "", false
}
