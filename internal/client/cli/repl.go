package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	List(ctx context.Context) error
	Refresh(ctx context.Context) error
	Add(ctx context.Context) error
	Reveal(ctx context.Context, id string) error
	Check(ctx context.Context) error
	History(ctx context.Context) error
	Search(ctx context.Context, term string) error
	Page(ctx context.Context, n int) error
	Step(ctx context.Context, delta int) error
	ImportKey(ctx context.Context) error
	Unlock(ctx context.Context) error
	ForgetKey(ctx context.Context) error
}

const helpText = "Available commands: (l)ist, (r)efresh, add, reveal <id>, check, history, " +
	"search [text], page <n>, next, prev, importkey, unlock, forgetkey, exit"

// runREPL starts a read-eval-print loop over in.
//
// It reads a line, parses the first token as the command and dispatches to
// methods on 'a'. The loop exits on EOF or when the user types "exit" or
// "quit".
//
// Errors returned by command handlers are ignored here; handlers report
// their own failures. This keeps the loop focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("sg %s> ", statusFn()))
		line, err := readLine(in)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "l", "list":
			_ = a.List(ctx)

		case "r", "refresh":
			_ = a.Refresh(ctx)

		case "add":
			_ = a.Add(ctx)

		case "reveal":
			if len(args) == 0 {
				printlnFn("Usage: reveal <id>")
				continue
			}
			_ = a.Reveal(ctx, args[0])

		case "check":
			_ = a.Check(ctx)

		case "history":
			_ = a.History(ctx)

		case "search":
			_ = a.Search(ctx, strings.Join(args, " "))

		case "page":
			if len(args) == 0 {
				printlnFn("Usage: page <n>")
				continue
			}
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				printlnFn("Page must be a positive number")
				continue
			}
			_ = a.Page(ctx, n)

		case "next":
			_ = a.Step(ctx, 1)

		case "prev":
			_ = a.Step(ctx, -1)

		case "importkey":
			_ = a.ImportKey(ctx)

		case "unlock":
			_ = a.Unlock(ctx)

		case "forgetkey":
			_ = a.ForgetKey(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
