package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dmitrijs2005/subguard/internal/common"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	getPassword  = GetPassword
)

var errSecretMismatch = errors.New("entries do not match")

// prompter asks the user for input on one shared reader, so answers typed
// ahead of a prompt are not lost between the REPL and a command.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// line prints
//
//	Prompt
//	> _
//
// and returns the trimmed answer. A final line without a newline still
// counts; EOF with nothing read is an error.
func (p *prompter) line(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt+"\n> "); err != nil {
		return "", err
	}
	return readLine(p.in)
}

// lineOr is line with a default used for an empty answer.
func (p *prompter) lineOr(prompt, def string) (string, error) {
	answer, err := p.line(fmt.Sprintf("%s [%s]", prompt, def))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// yesNo asks a question where an empty answer means yes.
func (p *prompter) yesNo(prompt string) (bool, error) {
	if _, err := fmt.Fprint(p.out, prompt+" [Y/n] "); err != nil {
		return false, err
	}
	answer, err := readLine(p.in)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// secret reads without echo through getPassword.
func (p *prompter) secret(prompt string) ([]byte, error) {
	return getPassword(p.out, prompt)
}

// newSecret reads a secret twice and fails with errSecretMismatch unless
// both entries agree. The caller owns and wipes the result.
func (p *prompter) newSecret(prompt string) ([]byte, error) {
	first, err := p.secret(prompt)
	if err != nil {
		return nil, err
	}
	second, err := p.secret("Repeat " + strings.ToLower(prompt))
	if err != nil {
		common.WipeByteArray(first)
		return nil, err
	}
	defer common.WipeByteArray(second)
	if string(first) != string(second) {
		common.WipeByteArray(first)
		return nil, errSecretMismatch
	}
	return first, nil
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints "prompt: " to w and reads one line from the terminal
// with echo off. The caller should wipe the returned slice.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
