package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Outcome captures what happened when a Descriptor or Pipeline ran.
type Outcome struct {
	ExitCode int
	// Stderr holds captured stderr per stage, in pipeline order.
	Stderr [][]byte
	// Stdout holds the terminal stage's stdout, if it was wired with
	// StdioCapture. Only the terminal stage may capture stdout; every
	// other stage's stdout is consumed by the next stage's stdin pipe.
	Stdout []byte
	Err    error
}

// Crashed reports whether any stage exited non-zero or failed to start.
func (o Outcome) Crashed() bool {
	return o.Err != nil
}

// Run executes a single Descriptor to completion. StdioPipe on a
// standalone Descriptor is treated as StdioCapture (there is no adjacent
// stage to connect to).
func Run(ctx context.Context, d Descriptor) Outcome {
	out, _ := RunPipeline(ctx, Pipeline{d})
	return out
}

// RunPipeline wires stage i+1's stdin to stage i's stdout and runs every
// stage concurrently, waiting for all of them to finish. On a non-zero
// exit from any stage the pipeline is reported as crashed, with stderr
// captured from every stage that produced any (the diagnostic bundle
// required by §7's "Chunk encoder crash").
func RunPipeline(ctx context.Context, p Pipeline) (Outcome, error) {
	if err := p.Validate(); err != nil {
		return Outcome{Err: err}, err
	}

	cmds := make([]*exec.Cmd, len(p))
	stderrBufs := make([]*bytes.Buffer, len(p))
	var stdoutBuf *bytes.Buffer

	for i, stage := range p {
		cmd := exec.CommandContext(ctx, stage.Program, stage.Args...)
		cmd.Dir = stage.Dir
		cmds[i] = cmd

		switch stage.Stdin {
		case StdioInherit:
			cmd.Stdin = os.Stdin
		case StdioPipe:
			if i == 0 {
				return Outcome{}, fmt.Errorf("stage %d: stdin pipe has no predecessor", i)
			}
			r, w := io.Pipe()
			cmds[i-1].Stdout = w
			cmd.Stdin = r
		default:
			// null: leave Stdin nil
		}

		stderrBufs[i] = &bytes.Buffer{}
		switch stage.Stderr {
		case StdioInherit:
			cmd.Stderr = os.Stderr
		case StdioCapture:
			cmd.Stderr = stderrBufs[i]
		default:
			// null: leave Stderr nil
		}

		if stage.Stdout == StdioCapture {
			stdoutBuf = &bytes.Buffer{}
			cmd.Stdout = stdoutBuf
		} else if stage.Stdout == StdioInherit {
			cmd.Stdout = os.Stdout
		}
	}

	for _, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			return collectStderr(stderrBufs, err), fmt.Errorf("failed to start %s: %w", cmd.Path, err)
		}
	}

	var firstErr error
	for i, cmd := range cmds {
		if err := cmd.Wait(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stage %d (%s) failed: %w", i, cmd.Path, err)
		}
		// Closing the write end of any pipe this stage owned lets the
		// next stage observe EOF even if this stage exited early.
		if w, ok := cmd.Stdout.(*io.PipeWriter); ok {
			_ = w.Close()
		}
	}

	out := collectStderr(stderrBufs, firstErr)
	if stdoutBuf != nil {
		out.Stdout = stdoutBuf.Bytes()
	}
	return out, firstErr
}

func collectStderr(bufs []*bytes.Buffer, err error) Outcome {
	out := Outcome{Err: err, Stderr: make([][]byte, len(bufs))}
	for i, b := range bufs {
		out.Stderr[i] = b.Bytes()
	}
	if exitErr, ok := asExitError(err); ok {
		out.ExitCode = exitErr.ExitCode()
	}
	return out
}

func asExitError(err error) (*exec.ExitError, bool) {
	var exitErr *exec.ExitError
	for e := err; e != nil; {
		if ee, ok := e.(*exec.ExitError); ok {
			exitErr = ee
			break
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return exitErr, exitErr != nil
}
