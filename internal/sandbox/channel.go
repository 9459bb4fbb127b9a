package sandbox

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrTimeout is wrapped into the error readUntilIdle returns when a command
// doesn't go idle before its deadline, so callers (the agent loop's
// single-interrupt-attempt policy) can classify it with
// errors.Is without string-matching.
var ErrTimeout = errors.New("sandbox: command timed out")

// Channel owns the one interactive shell process inside an isolated
// container — the single sandbox shell, owned exclusively by the agent
// loop. Grounded end-to-end on
// original_source/swe_agent/environment/docker_communication_management.py's
// _communicate/interrupt/reset_container algorithm, adapted to Go's
// goroutine-plus-channel idiom in place of Python's os.read + select.
type Channel struct {
	ops       ContainerOps
	image     string
	container string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	buf    *streamBuffer
	parent map[string]bool // PIDs present right after the shell started

	// listPIDsFn is overridden in tests to avoid a real docker dependency;
	// in production it shells out via dockerListPIDs.
	listPIDsFn func(ctx context.Context, container string) (map[string]bool, error)
	killPIDFn  func(ctx context.Context, container, pid string) error

	broken bool
}

// NewChannel constructs a Channel bound to ops and the given image. The
// shell is not started until Reset is called.
func NewChannel(ops ContainerOps, image string) *Channel {
	return &Channel{ops: ops, image: image, listPIDsFn: dockerListPIDs, killPIDFn: dockerKillPID}
}

// streamBuffer accumulates bytes read from the shell's stdout
// asynchronously, letting Send poll "is there more to read" the way
// read_with_timeout polls select() in the Python original, without
// blocking on a read call that may never return data.
type streamBuffer struct {
	mu  sync.Mutex
	b   strings.Builder
	err error
}

func (s *streamBuffer) run(r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.b.Write(buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}
	}
}

// drain returns and clears everything accumulated so far.
func (s *streamBuffer) drain() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.b.String()
	s.b.Reset()
	return out, s.err
}

// Reset tears down any existing shell/container, starts a fresh one (or
// unpauses a persistent one), sources the required helpers, and recreates
// /root/commands with the given catalogue files copied in. persistentName,
// when non-empty, selects the unpause-instead-of-recreate path.
func (c *Channel) Reset(ctx context.Context, persistentName string, commandFiles map[string]string) error {
	if c.container != "" {
		_ = c.ops.Kill(ctx, c.container)
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}

	name := persistentName
	if name != "" {
		if err := c.ops.Unpause(ctx, name); err != nil {
			// Fall through to a fresh Start if the persistent container is gone.
			name = ""
		}
	}
	if name == "" {
		started, err := c.ops.Start(ctx, c.image, []string{"swe-agent=true"})
		if err != nil {
			return fmt.Errorf("sandbox: starting container: %w", err)
		}
		name = started
	}
	c.container = name
	c.broken = false

	cmd := exec.CommandContext(ctx, "docker", "exec", "-i", name, "/bin/bash", "--noprofile", "--norc") //nolint:gosec // container name is our own, not user input.
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout // merge stderr into the same stream, one channel per instance.
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("sandbox: starting shell: %w", err)
	}

	c.cmd = cmd
	c.stdin = stdin
	c.buf = &streamBuffer{}
	go c.buf.run(bufio.NewReaderSize(stdout, 1<<16))

	pids, err := c.listPIDs(ctx)
	if err != nil {
		return err
	}
	c.parent = pids

	for _, setup := range []string{
		"source /root/.bashrc",
		"mkdir -p /root/commands",
		"export PATH=$PATH:/root/commands",
	} {
		if _, _, err := c.send(ctx, setup, 10*time.Second); err != nil {
			return fmt.Errorf("sandbox: init command %q: %w", setup, err)
		}
	}
	for name, body := range commandFiles {
		if err := c.writeCommandFile(ctx, name, body); err != nil {
			return fmt.Errorf("sandbox: installing command %s: %w", name, err)
		}
	}
	return nil
}

// writeCommandFile installs one catalogue file into /root/commands via a
// heredoc, avoiding a separate tar-stream dependency for this small amount
// of data.
func (c *Channel) writeCommandFile(ctx context.Context, name, body string) error {
	cmd := fmt.Sprintf("cat > /root/commands/%s << 'SWEAGENT_EOF'\n%s\nSWEAGENT_EOF\nchmod +x /root/commands/%s", name, body, name)
	_, exitCode, err := c.send(ctx, cmd, 10*time.Second)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("sandbox: writing %s exited %d", name, exitCode)
	}
	return nil
}

// Send writes command to the shell, waits until the shell is idle again
// (no descendant processes outside the parent set), then
// reads the bare-integer exit code from a trailing "echo $?". A preflight
// "/bin/bash -n" syntax check short-circuits on malformed input.
func (c *Channel) Send(ctx context.Context, command string, timeout time.Duration) (string, int, error) {
	if c.broken {
		return "", 0, fmt.Errorf("sandbox: channel is broken, call Reset")
	}
	if strings.TrimSpace(command) == "exit" {
		return "", 0, nil
	}

	syntaxCheck := fmt.Sprintf("/bin/bash -n <<'SWEAGENT_SYNTAX_EOF'\n%s\nSWEAGENT_SYNTAX_EOF", command)
	out, code, err := c.send(ctx, syntaxCheck, timeout)
	if err != nil {
		return "", 0, err
	}
	if code != 0 {
		return out, code, nil
	}
	return c.send(ctx, command, timeout)
}

// send is the raw, non-syntax-checked round trip.
func (c *Channel) send(ctx context.Context, input string, timeout time.Duration) (string, int, error) {
	cmd := input
	if !strings.HasSuffix(cmd, "\n") {
		cmd += "\n"
	}
	if _, err := io.WriteString(c.stdin, cmd); err != nil {
		c.broken = true
		return "", 0, fmt.Errorf("sandbox: broken pipe: %w", err)
	}

	output, err := c.readUntilIdle(ctx, timeout)
	if err != nil {
		return "", 0, err
	}

	if _, err := io.WriteString(c.stdin, "echo $?\n"); err != nil {
		c.broken = true
		return "", 0, fmt.Errorf("sandbox: broken pipe: %w", err)
	}
	rawCode, err := c.readUntilIdle(ctx, 5*time.Second)
	if err != nil {
		return "", 0, err
	}
	trimmed := strings.TrimSpace(rawCode)
	code, convErr := strconv.Atoi(trimmed)
	if convErr != nil {
		c.broken = true
		return "", 0, fmt.Errorf("sandbox: container crashed: failed to parse exit code from %q", trimmed)
	}
	return output, code, nil
}

// readUntilIdle polls the container's process table rather than the pipe:
// relying on pipe EOF would hang forever against a persistent shell. Once no
// descendant PIDs remain outside the parent set, it drains whatever bytes
// have accumulated and returns.
func (c *Channel) readUntilIdle(ctx context.Context, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	var all strings.Builder
	for time.Now().Before(deadline) {
		pids, err := c.listPIDs(ctx)
		if err != nil {
			return "", err
		}
		active := 0
		for pid := range pids {
			if !c.parent[pid] {
				active++
			}
		}
		if active > 0 {
			time.Sleep(50 * time.Millisecond)
			continue
		}
		chunk, rerr := c.buf.drain()
		all.WriteString(chunk)
		if rerr != nil {
			c.broken = true
			return all.String(), fmt.Errorf("sandbox: shell exited unexpectedly: %w", rerr)
		}
		if chunk == "" {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if time.Now().After(deadline) {
		return all.String(), fmt.Errorf("sandbox: timeout waiting for command to finish: %w", ErrTimeout)
	}
	return all.String(), nil
}

// listPIDs runs `ps -eo pid,comm` inside the container and returns the set
// of live PIDs (excluding the `ps` invocation itself).
func (c *Channel) listPIDs(ctx context.Context) (map[string]bool, error) {
	return c.listPIDsFn(ctx, c.container)
}

// dockerListPIDs is the production listPIDsFn, shelling out to docker exec.
func dockerListPIDs(ctx context.Context, container string) (map[string]bool, error) {
	cmd := exec.CommandContext(ctx, "docker", "exec", container, "ps", "-eo", "pid,comm", "--no-headers") //nolint:gosec // container name is our own.
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("sandbox: listing processes: %w", err)
	}
	return parsePIDs(string(out)), nil
}

// parsePIDs parses `ps -eo pid,comm --no-headers` output into a PID set,
// excluding the `ps` invocation itself (mirroring get_pids's own exclusion).
func parsePIDs(output string) map[string]bool {
	pids := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 || fields[1] == "ps" {
			continue
		}
		pids[fields[0]] = true
	}
	return pids
}

// dockerKillPID sends SIGKILL to pid inside container via docker exec.
func dockerKillPID(ctx context.Context, container, pid string) error {
	return exec.CommandContext(ctx, "docker", "exec", container, "kill", "-9", pid).Run() //nolint:gosec // pid/container are not user input.
}

// Interrupt kills every non-parent process in the container, drains
// whatever output remains, then asserts the shell still responds by
// round-tripping a sentinel echo. If the sentinel doesn't come back, the
// Channel is declared broken and must be Reset.
func (c *Channel) Interrupt(ctx context.Context) error {
	pids, err := c.listPIDs(ctx)
	if err != nil {
		return err
	}
	for pid := range pids {
		if c.parent[pid] {
			continue
		}
		_ = c.killPIDFn(ctx, c.container, pid)
	}
	_, _ = c.readUntilIdle(ctx, 20*time.Second)

	out, _, err := c.send(ctx, "echo 'interrupted'", 5*time.Second)
	if err != nil || !strings.HasSuffix(strings.TrimSpace(out), "interrupted") {
		c.broken = true
		return fmt.Errorf("sandbox: failed to interrupt container, channel is broken")
	}
	return nil
}

// Broken reports whether the channel has declared itself unusable and must
// be reset before further Send calls.
func (c *Channel) Broken() bool { return c.broken }
