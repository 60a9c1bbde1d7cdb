package provider

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PasswordProvider supplies the password that unlocks the operator keystore.
type PasswordProvider interface {
	Password(prompt string) (string, error)
}

// StaticPassword returns a provider that always answers with password, e.g. a value taken
// from the environment.
func StaticPassword(password string) PasswordProvider {
	return staticPassword(password)
}

type staticPassword string

func (p staticPassword) Password(string) (string, error) {
	if p == "" {
		return "", errors.New("empty password")
	}

	return string(p), nil
}

// TerminalPassword prompts on out and reads the password from in. When in is a terminal the
// input is not echoed.
type TerminalPassword struct {
	In  *os.File
	Out io.Writer
}

// NewTerminalPassword returns a TerminalPassword bound to stdin and stderr.
func NewTerminalPassword() *TerminalPassword {
	return &TerminalPassword{In: os.Stdin, Out: os.Stderr}
}

func (p *TerminalPassword) Password(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.Out, prompt); err != nil {
		return "", err
	}

	fd := int(p.In.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(p.Out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		return string(b), nil
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}

	return line, nil
}
