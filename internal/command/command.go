// Package command describes external process invocations as pure data,
// independent of how or when they are executed.
package command

// StdioMode selects how a single stdio stream of a Descriptor is wired.
type StdioMode int

const (
	// StdioInherit connects the stream to the parent process's own stream.
	StdioInherit StdioMode = iota
	// StdioNull discards (or never produces) data on the stream.
	StdioNull
	// StdioCapture buffers everything written to the stream in memory.
	// Valid for stdout/stderr only.
	StdioCapture
	// StdioPipe connects the stream to the adjacent stage of a Pipeline:
	// a stage's stdout with StdioPipe feeds the next stage's stdin.
	StdioPipe
)

// Descriptor is a value describing one external process invocation: a
// program path, its argument vector, and how each of its three standard
// streams should be wired. It performs no I/O itself; execution is the
// responsibility of whatever runs it (see Run and RunPipeline).
type Descriptor struct {
	Program string
	Args    []string
	Stdin   StdioMode
	Stdout  StdioMode
	Stderr  StdioMode
	// Dir, when non-empty, sets the working directory for the process.
	Dir string
}

// New returns a Descriptor with stdin null and stdout/stderr captured,
// the common case for a single, non-piped external command.
func New(program string, args ...string) Descriptor {
	return Descriptor{
		Program: program,
		Args:    args,
		Stdin:   StdioNull,
		Stdout:  StdioCapture,
		Stderr:  StdioCapture,
	}
}

// WithStdin returns a copy of d with its stdin mode set.
func (d Descriptor) WithStdin(mode StdioMode) Descriptor {
	d.Stdin = mode
	return d
}

// WithStdout returns a copy of d with its stdout mode set.
func (d Descriptor) WithStdout(mode StdioMode) Descriptor {
	d.Stdout = mode
	return d
}

// WithStderr returns a copy of d with its stderr mode set.
func (d Descriptor) WithStderr(mode StdioMode) Descriptor {
	d.Stderr = mode
	return d
}

// WithDir returns a copy of d with its working directory set.
func (d Descriptor) WithDir(dir string) Descriptor {
	d.Dir = dir
	return d
}

// String renders the shell-equivalent form of the descriptor, used for
// diagnostics and for Chunk's source-pipe-command accessor (§4.B).
func (d Descriptor) String() string {
	s := d.Program
	for _, a := range d.Args {
		s += " " + shellQuote(a)
	}
	return s
}

// Pipeline is an ordered composition of Descriptors where stage i+1's
// stdin is stage i's stdout. A Pipeline of one element is a plain
// command. Validated by Validate before execution.
type Pipeline []Descriptor

// Validate checks that every stage except the last is wired stdout->pipe
// and every stage except the first is wired stdin->pipe,
// per the composability rule in §4.A.
func (p Pipeline) Validate() error {
	if len(p) == 0 {
		return errEmptyPipeline
	}
	for i, stage := range p {
		if i < len(p)-1 && stage.Stdout != StdioPipe {
			return &InvalidPipelineError{Stage: i, Reason: "non-terminal stage must pipe stdout to the next stage"}
		}
		if i > 0 && stage.Stdin != StdioPipe {
			return &InvalidPipelineError{Stage: i, Reason: "non-first stage must pipe stdin from the previous stage"}
		}
	}
	return nil
}

// InvalidPipelineError reports a pipeline whose stdio wiring does not
// satisfy the stage-to-stage piping contract.
type InvalidPipelineError struct {
	Stage  int
	Reason string
}

func (e *InvalidPipelineError) Error() string {
	return "invalid pipeline at stage " + itoa(e.Stage) + ": " + e.Reason
}

var errEmptyPipeline = &InvalidPipelineError{Stage: -1, Reason: "pipeline has no stages"}

func itoa(n int) string {
	if n < 0 {
		return "-" + itoa(-n)
	}
	if n < 10 {
		return string(rune('0' + n))
	}
	return itoa(n/10) + string(rune('0'+n%10))
}

func shellQuote(s string) string {
	safe := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == '/' || r == ':' || r == '=':
		default:
			safe = false
		}
		if !safe {
			break
		}
	}
	if safe {
		return s
	}
	quoted := "'"
	for _, r := range s {
		if r == '\'' {
			quoted += `'\''`
		} else {
			quoted += string(r)
		}
	}
	return quoted + "'"
}
