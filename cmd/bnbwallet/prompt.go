package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"
	"golang.org/x/term"
)

var errSecretMismatch = errors.New("entries do not match")

// readSecret returns the value of flag when set. Otherwise it prompts on
// the terminal without echo, or reads one line from stdin when stdin is
// not a terminal. With confirm set, a terminal entry must be typed twice.
func readSecret(c *cli.Context, flag, prompt string, confirm bool) (string, error) {
	if c.IsSet(flag) {
		return c.String(flag), nil
	}
	st := state(c)

	if f, ok := st.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		first, err := promptHidden(f, prompt)
		if err != nil {
			return "", err
		}
		if !confirm {
			return first, nil
		}
		second, err := promptHidden(f, "Repeat "+strings.ToLower(prompt[:1])+prompt[1:])
		if err != nil {
			return "", err
		}
		if first != second {
			return "", errSecretMismatch
		}
		return first, nil
	}

	line, err := st.readLine()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", flag, err)
	}
	return line, nil
}

func promptHidden(f *os.File, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(f.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	defer clear(raw)
	return string(raw), nil
}

func (st *appState) reader() *bufio.Reader {
	if st.in == nil {
		st.in = bufio.NewReader(st.stdin)
	}
	return st.in
}

// readLine returns the next stdin line without its line ending. A final
// line without a newline is accepted.
func (st *appState) readLine() (string, error) {
	line, err := st.reader().ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
