// Package sandbox runs generated Go test programs with the yaegi
// interpreter.
//
// A test program is Go source in package main that defines
// func RunTest() string. The runner evaluates the program, calls RunTest
// and returns everything the program printed followed by RunTest's
// result. Run never returns an error: compile failures, forbidden
// imports, panics and timeouts all come back as text so they can be
// judged like any other output.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// EntryPoint is the function every test program must define.
const EntryPoint = "RunTest"

// DefaultTimeout bounds a single program run.
const DefaultTimeout = 15 * time.Second

// allowedImports lists the stdlib packages test programs may use. Anything
// touching the filesystem, processes, network or unsafe memory is absent.
var allowedImports = map[string]bool{
	"bytes":           true,
	"cmp":             true,
	"container/heap":  true,
	"container/list":  true,
	"encoding/base64": true,
	"encoding/hex":    true,
	"encoding/json":   true,
	"errors":          true,
	"fmt":             true,
	"maps":            true,
	"math":            true,
	"math/big":        true,
	"math/bits":       true,
	"math/cmplx":      true,
	"math/rand":       true,
	"reflect":         true,
	"regexp":          true,
	"slices":          true,
	"sort":            true,
	"strconv":         true,
	"strings":         true,
	"text/tabwriter":  true,
	"time":            true,
	"unicode":         true,
	"unicode/utf8":    true,
}

// Yaegi is a Runner backed by the yaegi interpreter.
type Yaegi struct {
	timeout time.Duration
	logger  *zap.Logger
}

// New returns a runner with the given per-run timeout. timeout <= 0 uses
// DefaultTimeout.
func New(timeout time.Duration, logger *zap.Logger) *Yaegi {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Yaegi{timeout: timeout, logger: logger}
}

// Timeout returns the per-run limit.
func (y *Yaegi) Timeout() time.Duration { return y.timeout }

// Run evaluates code and calls its RunTest function.
//
// The interpreter stops at the deadline. A program blocked inside a native
// call (time.Sleep, a channel op) keeps its goroutine until that call
// returns, but Run itself returns at the deadline.
func (y *Yaegi) Run(ctx context.Context, code string) string {
	code = wrap(code)
	if err := checkImports(code); err != nil {
		return "error: " + err.Error()
	}

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	out := &syncBuffer{}
	done := make(chan string, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Sprintf("panic: %v", r)
			}
		}()
		done <- y.exec(ctx, code, out)
	}()

	var result string
	select {
	case result = <-done:
	case <-ctx.Done():
		y.logger.Warn("test program timed out", zap.Duration("timeout", y.timeout))
		result = fmt.Sprintf("error: test timed out after %s", y.timeout)
	}
	return joinOutput(out.String(), result)
}

func (y *Yaegi) exec(ctx context.Context, code string, out *syncBuffer) string {
	i := interp.New(interp.Options{Stdout: out, Stderr: out})
	if err := i.Use(stdlib.Symbols); err != nil {
		return "error: loading stdlib: " + err.Error()
	}
	if _, err := i.EvalWithContext(ctx, code); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Sprintf("error: test timed out after %s", y.timeout)
		}
		return "error: " + err.Error()
	}
	v, err := i.EvalWithContext(ctx, "main."+EntryPoint)
	if err != nil {
		return fmt.Sprintf("error: %s not defined: %v", EntryPoint, err)
	}
	if _, ok := v.Interface().(func() string); !ok {
		return fmt.Sprintf("error: %s must have signature func() string", EntryPoint)
	}
	res, err := i.EvalWithContext(ctx, "main."+EntryPoint+"()")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Sprintf("error: test timed out after %s", y.timeout)
		}
		return "panic: " + err.Error()
	}
	got, ok := res.Interface().(string)
	if !ok {
		return fmt.Sprintf("error: %s must have signature func() string", EntryPoint)
	}
	return got
}

// wrap prepends a package clause when the program has none.
func wrap(code string) string {
	if strings.Contains(code, "package main") {
		return code
	}
	return "package main\n\n" + code
}

// checkImports rejects programs importing anything outside allowedImports.
func checkImports(code string) error {
	f, err := parser.ParseFile(token.NewFileSet(), "test.go", code, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	var forbidden []string
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return fmt.Errorf("parse import %s: %w", imp.Path.Value, err)
		}
		if !allowedImports[path] {
			forbidden = append(forbidden, path)
		}
	}
	if len(forbidden) > 0 {
		sort.Strings(forbidden)
		return fmt.Errorf("forbidden imports: %s", strings.Join(forbidden, ", "))
	}
	return nil
}

func joinOutput(printed, result string) string {
	printed = strings.TrimRight(printed, "\n")
	switch {
	case printed == "":
		return result
	case result == "":
		return printed
	default:
		return printed + "\n" + result
	}
}

// syncBuffer is a bytes.Buffer safe for the interpreter goroutine to write
// while Run reads it after a timeout.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
