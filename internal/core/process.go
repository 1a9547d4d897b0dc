package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTerminateGrace is how long a child may take to exit after the
// graceful request before it is killed.
const DefaultTerminateGrace = 10 * time.Second

// Command describes a child process.
type Command struct {
	Argv   []string
	Dir    string
	Env    []string // nil inherits the current environment
	Stdin  io.Reader
	Stdout io.Writer // nil selects os.Stdout
	Stderr io.Writer // nil selects os.Stderr
}

// String returns the argv joined by spaces, for display.
func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Process is a running child. It is started in its own process group so the
// whole tree can be stopped together.
type Process struct {
	cmd  *exec.Cmd
	argv []string
	dir  string

	done     chan struct{}
	exitCode int
	waitErr  error

	termOnce     sync.Once
	terminations atomic.Int32
}

// Spawn starts c and returns without waiting for it. The child is reaped by
// a background goroutine; use Wait to block until it exits.
func Spawn(ctx context.Context, c Command) (*Process, error) {
	if len(c.Argv) == 0 {
		return nil, fmt.Errorf("spawn: empty command")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(c.Argv[0], c.Argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", c.Argv[0], err)
	}

	p := &Process{
		cmd:  cmd,
		argv: c.Argv,
		dir:  c.Dir,
		done: make(chan struct{}),
	}
	go p.reap()
	return p, nil
}

func (p *Process) reap() {
	err := p.cmd.Wait()
	p.exitCode = p.cmd.ProcessState.ExitCode()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Copying output failed; the exit code is still meaningful.
		p.waitErr = err
	}
	close(p.done)
}

// Pid returns the process id of the child.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Argv returns the command line the child was started with.
func (p *Process) Argv() []string {
	return p.argv
}

// Done is closed once the child has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports whether the child has been reaped.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the child exits and returns its exit code (-1 when it
// was ended by a signal). If ctx ends first the child is terminated, still
// waited on, and ctx.Err() is returned alongside the exit code.
func (p *Process) Wait(ctx context.Context) (int, error) {
	select {
	case <-p.done:
		return p.exitCode, p.waitErr
	case <-ctx.Done():
		p.Terminate(DefaultTerminateGrace)
		<-p.done
		return p.exitCode, ctx.Err()
	}
}

// Terminate asks the child's process group to exit and kills it when it is
// still running after grace. It returns once the child has exited. Calling
// it again, or on an exited child, only waits.
func (p *Process) Terminate(grace time.Duration) {
	if grace <= 0 {
		grace = DefaultTerminateGrace
	}
	p.termOnce.Do(func() {
		if p.Exited() {
			return
		}
		p.terminations.Add(1)
		if err := terminateGroup(p.cmd.Process); err != nil {
			_ = killGroup(p.cmd.Process)
		}

		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case <-p.done:
		case <-timer.C:
			_ = killGroup(p.cmd.Process)
		}
	})
	<-p.done
}

// Terminations reports how many times a termination request was sent.
func (p *Process) Terminations() int {
	return int(p.terminations.Load())
}

// ShutdownContext returns a copy of ctx that is cancelled by the first of
// ShutdownSignals. Children waited on with that context are terminated
// before the CLI exits.
func ShutdownContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, ShutdownSignals...)
}

// RunOptions configures RunWithSignalForwarding.
type RunOptions struct {
	// Signals that trigger termination. Nil selects ShutdownSignals.
	Signals []os.Signal
	// Notify and Stop register and remove the signal subscription. They
	// default to signal.Notify and signal.Stop.
	Notify func(c chan<- os.Signal, sig ...os.Signal)
	Stop   func(c chan<- os.Signal)
	// Grace is passed to Terminate.
	Grace time.Duration
	// Started is called once the child is running.
	Started func(*Process)
}

// RunResult is the outcome of RunWithSignalForwarding.
type RunResult struct {
	ExitCode int
	// Signal is the signal that stopped the run, nil when the child exited
	// by itself.
	Signal os.Signal
	// Terminated is true when the child was stopped by us.
	Terminated bool
}

// shutdownToken is set at most once and observed by one waiter.
type shutdownToken struct {
	once sync.Once
	ch   chan struct{}
	sig  os.Signal
}

func newShutdownToken() *shutdownToken {
	return &shutdownToken{ch: make(chan struct{})}
}

func (t *shutdownToken) set(sig os.Signal) {
	t.once.Do(func() {
		t.sig = sig
		close(t.ch)
	})
}

// RunWithSignalForwarding runs c until it exits. An interrupt or termination
// signal, or the end of ctx, terminates the child once; the call returns only
// after the child has exited. The signal subscription is removed before
// returning.
func RunWithSignalForwarding(ctx context.Context, c Command, opts RunOptions) (*RunResult, error) {
	signals := opts.Signals
	if signals == nil {
		signals = ShutdownSignals
	}
	notify := opts.Notify
	if notify == nil {
		notify = signal.Notify
	}
	stop := opts.Stop
	if stop == nil {
		stop = signal.Stop
	}

	sigCh := make(chan os.Signal, 1)
	notify(sigCh, signals...)
	defer stop(sigCh)

	proc, err := Spawn(ctx, c)
	if err != nil {
		return nil, err
	}
	if opts.Started != nil {
		opts.Started(proc)
	}

	token := newShutdownToken()
	var wg sync.WaitGroup

	// Signal pump: turns the first signal or cancellation into the token.
	// Later signals are dropped by the buffered channel.
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case sig := <-sigCh:
			token.set(sig)
		case <-ctx.Done():
			token.set(nil)
		case <-proc.Done():
		}
	}()

	// Waiter: terminates the child once the token is set.
	terminated := false
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-token.ch:
			terminated = true
			proc.Terminate(opts.Grace)
		case <-proc.Done():
		}
	}()

	<-proc.Done()
	wg.Wait()

	res := &RunResult{ExitCode: proc.exitCode, Terminated: terminated}
	if terminated {
		res.Signal = token.sig
	}
	if proc.waitErr != nil {
		return res, proc.waitErr
	}
	if terminated && token.sig == nil {
		return res, ctx.Err()
	}
	return res, nil
}

// ExitError reports a child that exited with a non-zero code.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
}

// runChild spawns c and waits for it.
func runChild(ctx context.Context, c Command) (int, error) {
	p, err := Spawn(ctx, c)
	if err != nil {
		return -1, err
	}
	return p.Wait(ctx)
}
