package procexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"ytplayer/internal/logging"
	"ytplayer/internal/services"
)

// ErrSpawn marks failures to launch the executable at all, as opposed to a
// launched tool exiting unsuccessfully.
var ErrSpawn = errors.New("spawn failed")

const stderrTailBytes = 4096

// Invocation describes one external command.
type Invocation struct {
	Name string
	Args []string
	Dir  string
	Env  []string
	// Stdin, when set, feeds the tool directly and Process.Stdin returns nil.
	Stdin io.Reader
	// Stdout, when set, receives the tool's output and Process.Stdout returns nil.
	Stdout io.Writer
	// Stderr optionally mirrors the tool's diagnostics in addition to the tail buffer.
	Stderr io.Writer
}

// ExitError reports a tool that ran but exited unsuccessfully.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg += ": " + lastLine(tail)
	}
	return msg
}

// Process is a running external tool.
type Process struct {
	name   string
	cmd    *exec.Cmd
	stdin  *os.File
	stdout *os.File
	tail   *tailBuffer
	logger *slog.Logger

	done     chan struct{}
	exitCode int
	waitErr  error

	closeOnce sync.Once
}

// Start launches inv.Name. A nil Process and an error wrapping ErrSpawn are
// returned when the executable cannot be started.
func Start(ctx context.Context, inv Invocation, logger *slog.Logger) (*Process, error) {
	logger = logging.NewComponentLogger(logger, "procexec")
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...) //nolint:gosec
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	configureProcessGroup(cmd)

	p := &Process{
		name:     inv.Name,
		cmd:      cmd,
		tail:     newTailBuffer(stderrTailBytes),
		logger:   logger,
		done:     make(chan struct{}),
		exitCode: -1,
	}

	var childEnds []*os.File
	closeChildEnds := func() {
		for _, f := range childEnds {
			_ = f.Close()
		}
	}

	if inv.Stdin != nil {
		cmd.Stdin = inv.Stdin
	} else {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, spawnError(inv.Name, fmt.Errorf("stdin pipe: %w", err))
		}
		cmd.Stdin = r
		p.stdin = w
		childEnds = append(childEnds, r)
	}

	if inv.Stdout != nil {
		cmd.Stdout = inv.Stdout
	} else {
		r, w, err := os.Pipe()
		if err != nil {
			closeChildEnds()
			p.closePipes()
			return nil, spawnError(inv.Name, fmt.Errorf("stdout pipe: %w", err))
		}
		cmd.Stdout = w
		p.stdout = r
		childEnds = append(childEnds, w)
	}

	if inv.Stderr != nil {
		cmd.Stderr = io.MultiWriter(p.tail, inv.Stderr)
	} else {
		cmd.Stderr = p.tail
	}

	if err := cmd.Start(); err != nil {
		closeChildEnds()
		p.closePipes()
		return nil, spawnError(inv.Name, err)
	}
	// The child holds its own copies now.
	closeChildEnds()

	logger.Debug("process started",
		logging.String("binary", inv.Name),
		logging.Int("pid", cmd.Process.Pid),
		logging.String("args", strings.Join(inv.Args, " ")),
	)

	go p.monitor(ctx)
	return p, nil
}

func (p *Process) monitor(ctx context.Context) {
	err := p.cmd.Wait()
	if state := p.cmd.ProcessState; state != nil {
		p.exitCode = state.ExitCode()
	}
	switch {
	case err == nil:
	case ctx.Err() != nil:
		p.waitErr = services.Wrap(services.ErrExternalTool, "procexec", p.name, "canceled", ctx.Err())
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			p.waitErr = services.Wrap(services.ErrExternalTool, "procexec", p.name, "",
				&ExitError{Name: p.name, Code: p.exitCode, Stderr: p.tail.String()})
		} else {
			p.waitErr = services.Wrap(services.ErrExternalTool, "procexec", p.name, "wait", err)
		}
	}
	close(p.done)
}

// Stdin is the write end of the tool's standard input. Closing it signals EOF.
func (p *Process) Stdin() io.WriteCloser {
	if p.stdin == nil {
		return nil
	}
	return p.stdin
}

// Stdout is the read end of the tool's standard output. It stays readable
// after the tool exits until every buffered byte is consumed.
func (p *Process) Stdout() io.ReadCloser {
	if p.stdout == nil {
		return nil
	}
	return p.stdout
}

// Done is closed once the tool has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the tool exits and returns its exit code. A non-zero
// exit yields an error wrapping *ExitError.
func (p *Process) Wait() (int, error) {
	<-p.done
	return p.exitCode, p.waitErr
}

// PID returns the operating system process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Stderr returns the most recent diagnostic output.
func (p *Process) Stderr() string {
	return p.tail.String()
}

// Close releases both pipe ends and kills the process group if the tool is
// still running. It is safe to call more than once and always waits for the
// tool to be reaped.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		select {
		case <-p.done:
		default:
			if err := killProcessGroup(p.cmd); err != nil {
				p.logger.Debug("kill process group failed",
					logging.String("binary", p.name),
					logging.Error(err),
				)
			}
		}
		p.closePipes()
		<-p.done
	})
	return nil
}

func (p *Process) closePipes() {
	if p.stdin != nil {
		_ = p.stdin.Close()
	}
	if p.stdout != nil {
		_ = p.stdout.Close()
	}
}

func spawnError(name string, err error) error {
	return services.Wrap(services.ErrExternalTool, "procexec", name, "start", fmt.Errorf("%w: %w", ErrSpawn, err))
}

func lastLine(s string) string {
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}
