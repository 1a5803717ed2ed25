/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package process supervises a single child process: start it, stream its
// stdout/stderr line by line to a handler, restart it on unexpected exit
// according to a retry policy, and stop it on request (graceful signal,
// falling back to a hard kill after a grace period).
package process

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	liberr "github.com/lhamowski/luxnet/errors"
	"github.com/lhamowski/luxnet/logger"
	"github.com/lhamowski/luxnet/retry"
)

// Handler receives supervised process lifecycle events.
type Handler struct {
	OnStarted func(pid int)
	OnStdout  func(line string)
	OnStderr  func(line string)
	OnExited  func(err error, willRestart bool)
}

// Config controls how a Supervisor starts and restarts its child.
type Config struct {
	Path          string
	Args          []string
	Dir           string
	Env           []string
	RestartOnExit bool
	RestartPolicy retry.Policy
	StopGrace     time.Duration
}

// DefaultConfig returns sane defaults: no auto-restart, five second grace
// period before SIGKILL on Stop.
func DefaultConfig(path string, args ...string) Config {
	return Config{Path: path, Args: args, StopGrace: 5 * time.Second}
}

// Supervisor owns the lifecycle of one child process.
type Supervisor struct {
	id      string
	cfg     Config
	handler Handler
	log     logger.Logger
	retry   *retry.Executor

	mu      sync.Mutex
	cmd     *exec.Cmd
	exited  chan struct{}
	stopped bool
	gen     uint64
}

// New constructs a Supervisor. The process is not started until Start is
// called.
func New(cfg Config, handler Handler, log logger.Logger) *Supervisor {
	s := &Supervisor{id: uuid.NewString(), cfg: cfg, handler: handler, log: logger.OrDiscard(log)}
	if cfg.RestartOnExit {
		s.retry = retry.New(cfg.RestartPolicy)
		s.retry.SetRetryAction(s.spawn)
	}
	return s
}

// ID returns this supervisor's unique identifier, stable across restarts
// of its child.
func (s *Supervisor) ID() string { return s.id }

// Start launches the child process.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	s.stopped = false
	s.mu.Unlock()
	return s.spawnOnce()
}

func (s *Supervisor) spawnOnce() error {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	return s.doSpawn(gen)
}

// spawn is the retry.Executor's retry action: it ignores spawn errors
// beyond logging them, since the executor's own policy governs whether
// (and when) another attempt follows.
func (s *Supervisor) spawn() {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	if err := s.doSpawn(gen); err != nil {
		s.log.Error("process %s restart failed: %v", s.id, err)
		s.retry.Retry()
	}
}

func (s *Supervisor) doSpawn(gen uint64) error {
	cmd := exec.Command(s.cfg.Path, s.cfg.Args...)
	cmd.Dir = s.cfg.Dir
	if len(s.cfg.Env) > 0 {
		cmd.Env = s.cfg.Env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return liberr.Wrap(liberr.ErrIO, "stdout pipe failed", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return liberr.Wrap(liberr.ErrIO, "stderr pipe failed", err)
	}

	if err := cmd.Start(); err != nil {
		return liberr.Wrap(liberr.ErrIO, "process start failed", err)
	}

	exited := make(chan struct{})
	s.mu.Lock()
	s.cmd = cmd
	s.exited = exited
	s.mu.Unlock()

	if s.handler.OnStarted != nil {
		s.handler.OnStarted(cmd.Process.Pid)
	}

	go s.streamLines(stdout, s.handler.OnStdout)
	go s.streamLines(stderr, s.handler.OnStderr)
	go s.awaitExit(cmd, gen, exited)
	return nil
}

func (s *Supervisor) streamLines(r io.Reader, onLine func(string)) {
	if onLine == nil {
		io.Copy(io.Discard, r)
		return
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
}

func (s *Supervisor) awaitExit(cmd *exec.Cmd, gen uint64, exited chan struct{}) {
	err := cmd.Wait()
	close(exited)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	stopped := s.stopped
	s.mu.Unlock()

	willRestart := !stopped && s.cfg.RestartOnExit
	if willRestart {
		s.mu.Lock()
		s.gen++
		s.mu.Unlock()
		s.retry.Retry()
	}

	if s.handler.OnExited != nil {
		var wrapped error
		if err != nil {
			wrapped = liberr.Wrap(liberr.ErrIO, "process exited with error", err)
		}
		s.handler.OnExited(wrapped, willRestart)
	}
}

// Stop requests the child process exit, signaling it first and escalating
// to a hard kill if it has not exited within cfg.StopGrace. Stop disables
// any pending restart.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.gen++
	cmd := s.cmd
	exited := s.exited
	s.mu.Unlock()

	if s.retry != nil {
		s.retry.Cancel()
	}
	if cmd == nil || cmd.Process == nil || exited == nil {
		return nil
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return liberr.Wrap(liberr.ErrIO, "signal failed", err)
	}

	grace := s.cfg.StopGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-exited:
			return nil
		case <-time.After(grace):
			return cmd.Process.Kill()
		case <-gctx.Done():
			return nil
		}
	})
	if err := g.Wait(); err != nil {
		return liberr.Wrap(liberr.ErrIO, "kill failed", err)
	}

	select {
	case <-exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
