package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers from the App input. Secrets are read without echo
// when the input is a terminal.
type prompter struct {
	in io.Reader
	r  *bufio.Reader
}

func (a *App) prompt() *prompter {
	if a.prompter == nil {
		in := a.In
		if in == nil {
			in = strings.NewReader("")
		}
		a.prompter = &prompter{in: in, r: bufio.NewReader(in)}
	}
	return a.prompter
}

// line prints label to errOut and reads one line. EOF yields "".
func (p *prompter) line(errOut io.Writer, label string) (string, error) {
	fmt.Fprint(errOut, label)
	s, err := p.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (p *prompter) secret(errOut io.Writer, label string) (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(errOut, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(errOut)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return p.line(errOut, label)
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func (p *prompter) confirm(errOut io.Writer, question string) bool {
	answer, err := p.line(errOut, question+" [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
