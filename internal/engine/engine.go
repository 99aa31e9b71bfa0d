// Package engine drives a UCI chess engine as a long-lived subprocess: it
// speaks the handshake (uci/isready/ucinewgame), issues searches, and folds
// multi-PV info lines into a model.EngineSummary. It is the UCI Engine
// Driver boundary collaborator (spec §4.4/§4.5/§4.9).
package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eloinsight/tempolens/internal/model"
)

// ErrTimeout is returned when the engine does not respond within the
// protocol's allotted window.
var ErrTimeout = errors.New("engine: timed out waiting for response")

// ProtocolError wraps a failure to understand or obtain a UCI response for
// a specific operation.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("engine: %s: %v", e.Op, e.Err) }
func (e *ProtocolError) Unwrap() error { return e.Err }

const (
	handshakeTimeout = 2 * time.Second
	readyTimeout     = 2 * time.Second
	searchLineTimeout = 10 * time.Second
)

// Config configures one engine process.
type Config struct {
	BinaryPath string
	Threads    int
	HashMB     int
	MultiPV    int
}

// SearchLimit bounds one search: either a fixed depth or a time budget, per
// spec.md's "go depth <d>" / "go movetime <ms>" forms.
type SearchLimit struct {
	Depth      int
	MovetimeMs int
}

type lineOrErr struct {
	line string
	err  error
}

// Engine is one started and initialized UCI subprocess.
type Engine struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	reader  chan lineOrErr
	mu      sync.Mutex
	logger  *zap.Logger
	config  Config
	version string
}

// Start spawns the engine binary and completes the UCI handshake:
// uci -> uciok, options, isready -> readyok.
func Start(config Config, logger *zap.Logger) (*Engine, error) {
	cmd := exec.Command(config.BinaryPath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to start engine %q: %w", config.BinaryPath, err)
	}

	e := &Engine{
		cmd:    cmd,
		stdin:  stdin,
		reader: make(chan lineOrErr, 64),
		logger: logger,
		config: config,
	}
	go e.pump(stdout)

	if err := e.handshake(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) pump(stdout io.Reader) {
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		e.reader <- lineOrErr{line: sc.Text()}
	}
	if err := sc.Err(); err != nil {
		e.reader <- lineOrErr{err: err}
		return
	}
	e.reader <- lineOrErr{err: io.EOF}
}

func (e *Engine) readLine(timeout time.Duration) (string, error) {
	select {
	case m := <-e.reader:
		if m.err != nil {
			return "", m.err
		}
		return m.line, nil
	case <-time.After(timeout):
		return "", ErrTimeout
	}
}

func (e *Engine) sendCommand(cmd string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.stdin.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("failed to send command %q: %w", cmd, err)
	}
	e.logger.Debug("sent command", zap.String("cmd", cmd))
	return nil
}

func (e *Engine) handshake() error {
	if err := e.sendCommand("uci"); err != nil {
		return &ProtocolError{Op: "uci", Err: err}
	}
	for {
		line, err := e.readLine(handshakeTimeout)
		if err != nil {
			return &ProtocolError{Op: "uci", Err: err}
		}
		if strings.HasPrefix(line, "id name ") {
			e.version = strings.TrimPrefix(line, "id name ")
		}
		if line == "uciok" {
			break
		}
	}

	if e.config.Threads > 0 {
		if err := e.SetOption("Threads", strconv.Itoa(e.config.Threads)); err != nil {
			return err
		}
	}
	if e.config.HashMB > 0 {
		if err := e.SetOption("Hash", strconv.Itoa(e.config.HashMB)); err != nil {
			return err
		}
	}
	if e.config.MultiPV > 1 {
		if err := e.SetOption("MultiPV", strconv.Itoa(e.config.MultiPV)); err != nil {
			return err
		}
	}

	if err := e.waitReady(); err != nil {
		return err
	}
	e.logger.Info("engine initialized", zap.String("version", e.version))
	return nil
}

func (e *Engine) waitReady() error {
	if err := e.sendCommand("isready"); err != nil {
		return &ProtocolError{Op: "isready", Err: err}
	}
	for {
		line, err := e.readLine(readyTimeout)
		if err != nil {
			return &ProtocolError{Op: "isready", Err: err}
		}
		if line == "readyok" {
			return nil
		}
	}
}

// SetOption sends a UCI "setoption" command.
func (e *Engine) SetOption(name, value string) error {
	return e.sendCommand(fmt.Sprintf("setoption name %s value %s", name, value))
}

// NewGame resets engine state between games in a batch run.
func (e *Engine) NewGame() error {
	if err := e.sendCommand("ucinewgame"); err != nil {
		return &ProtocolError{Op: "ucinewgame", Err: err}
	}
	return e.waitReady()
}

// Version reports the engine's "id name" string, empty if none was sent.
func (e *Engine) Version() string { return e.version }

// Search sets the position and issues a bounded search, optionally
// restricted to searchMoves (used to rescue a played move's score when it
// falls outside the configured multi-PV window). It returns the
// accumulated multi-PV summary (in raw, side-to-move orientation) and the
// engine's chosen best move in UCI form.
func (e *Engine) Search(fen string, limit SearchLimit, searchMoves []string) (model.EngineSummary, string, error) {
	if err := e.sendCommand("position fen " + fen); err != nil {
		return model.EngineSummary{}, "", &ProtocolError{Op: "position", Err: err}
	}

	var cmd strings.Builder
	cmd.WriteString("go")
	if limit.Depth > 0 {
		fmt.Fprintf(&cmd, " depth %d", limit.Depth)
	} else {
		fmt.Fprintf(&cmd, " movetime %d", limit.MovetimeMs)
	}
	if len(searchMoves) > 0 {
		cmd.WriteString(" searchmoves ")
		cmd.WriteString(strings.Join(searchMoves, " "))
	}
	if err := e.sendCommand(cmd.String()); err != nil {
		return model.EngineSummary{}, "", &ProtocolError{Op: "go", Err: err}
	}

	acc := newMultiPVAccumulator()
	bestMove := ""
	for {
		line, err := e.readLine(searchLineTimeout)
		if err != nil {
			return model.EngineSummary{}, "", &ProtocolError{Op: "go", Err: err}
		}
		e.logger.Debug("engine output", zap.String("line", line))

		switch {
		case strings.HasPrefix(line, "info") && strings.Contains(line, "score"):
			acc.ingest(line)
		case strings.HasPrefix(line, "bestmove"):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				bestMove = fields[1]
			}
			return acc.summary(), bestMove, nil
		}
	}
}

// Close sends "quit", waits briefly for a graceful exit, then kills the
// process if it hasn't stopped.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.stdin != nil {
		e.stdin.Write([]byte("quit\n"))
		e.stdin.Close()
	}
	e.mu.Unlock()

	if e.cmd == nil || e.cmd.Process == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		e.cmd.Process.Kill()
		<-done
	}
	e.logger.Info("engine closed")
	return nil
}
