package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls []string
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeExec) List(context.Context) error                { return f.record("list") }
func (f *fakeExec) Refresh(context.Context) error             { return f.record("refresh") }
func (f *fakeExec) Add(context.Context) error                 { return f.record("add") }
func (f *fakeExec) Reveal(_ context.Context, id string) error { return f.record("reveal " + id) }
func (f *fakeExec) Check(context.Context) error               { return f.record("check") }
func (f *fakeExec) History(context.Context) error             { return f.record("history") }
func (f *fakeExec) Search(_ context.Context, term string) error {
	return f.record("search " + term)
}
func (f *fakeExec) Page(_ context.Context, n int) error { return f.record(fmt.Sprintf("page %d", n)) }
func (f *fakeExec) Step(_ context.Context, d int) error { return f.record(fmt.Sprintf("step %d", d)) }
func (f *fakeExec) ImportKey(context.Context) error     { return f.record("importkey") }
func (f *fakeExec) Unlock(context.Context) error        { return f.record("unlock") }
func (f *fakeExec) ForgetKey(context.Context) error     { return f.record("forgetkey") }

func rdr(s string) *bufio.Reader { return bufio.NewReader(strings.NewReader(s)) }

func silence(t *testing.T) *[]string {
	t.Helper()
	var printed []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		printed = append(printed, fmt.Sprint(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &printed
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	silence(t)

	input := strings.Join([]string{
		"help",
		"list",
		"r",
		"add",
		"reveal sub-1",
		"check",
		"history",
		"search net flix",
		"page 2",
		"next",
		"prev",
		"importkey",
		"unlock",
		"forgetkey",
		"exit",
		"list",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, rdr(input))

	assert.Equal(t, []string{
		"list", "refresh", "add", "reveal sub-1", "check", "history",
		"search net flix", "page 2", "step 1", "step -1",
		"importkey", "unlock", "forgetkey",
	}, exec.calls)
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	printed := silence(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, rdr("reveal\npage x\nfoobar\n\nquit\n"))

	assert.Empty(t, exec.calls)
	out := strings.Join(*printed, "\n")
	assert.Contains(t, out, "Usage: reveal <id>")
	assert.Contains(t, out, "Page must be a positive number")
	assert.Contains(t, out, "Unknown command:foobar")
	assert.Contains(t, out, "Bye!")
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	silence(t)
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("check"))
	assert.Equal(t, []string{"check"}, exec.calls)
}
