package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Terminal is a Prompter reading from a terminal or any other input. Password
// input is not echoed when in is a terminal.
type Terminal struct {
	raw io.Reader
	buf *bufio.Reader
	fd  int
	tty bool
	out io.Writer
}

// NewTerminal prompts on out and reads answers from in. On a terminal every
// read goes straight to the descriptor so nothing typed ahead is held in a
// buffer that term.ReadPassword cannot see.
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	fd := int(in.Fd())
	t := &Terminal{raw: in, fd: fd, tty: term.IsTerminal(fd), out: out}
	if !t.tty {
		t.buf = bufio.NewReader(in)
	}
	return t
}

func (t *Terminal) readLine() (string, error) {
	if t.tty {
		return readLineUnbuffered(t.raw)
	}
	line, err := t.buf.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readLineUnbuffered reads up to and including the next newline one byte at a
// time, leaving the rest of r untouched.
func readLineUnbuffered(r io.Reader) (string, error) {
	var sb strings.Builder
	b := make([]byte, 1)
	for {
		n, err := r.Read(b)
		if n == 1 {
			if b[0] == '\n' {
				return strings.TrimRight(sb.String(), "\r"), nil
			}
			sb.WriteByte(b[0])
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				return strings.TrimRight(sb.String(), "\r"), nil
			}
			return "", err
		}
	}
}

// Line reads one line of text.
func (t *Terminal) Line(prompt string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", prompt)
	return t.readLine()
}

// Password reads one line without echo.
func (t *Terminal) Password(prompt string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", prompt)
	if !t.tty {
		return t.readLine()
	}
	pw, err := term.ReadPassword(t.fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// Confirm asks a yes/no question. An empty answer selects def.
func (t *Terminal) Confirm(prompt string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(t.out, "%s [%s]: ", prompt, hint)
		answer, err := t.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(t.out, "Please answer yes or no")
	}
}

// Select shows a numbered list and reads the choice. An empty answer
// selects def.
func (t *Terminal) Select(prompt string, items []string, def int) (int, error) {
	fmt.Fprintln(t.out, prompt)
	for i, item := range items {
		marker := " "
		if i == def {
			marker = ">"
		}
		fmt.Fprintf(t.out, "%s %d) %s\n", marker, i+1, item)
	}
	for {
		fmt.Fprintf(t.out, "Choice [%d]: ", def+1)
		answer, err := t.readLine()
		if err != nil {
			return 0, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return def, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(items) {
			return n - 1, nil
		}
		fmt.Fprintf(t.out, "Please enter a number between 1 and %d\n", len(items))
	}
}
