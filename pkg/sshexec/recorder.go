package sshexec

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Recorder is an in-memory Dialer that records every command per host.
// It backs dry runs and tests of command generation.
type Recorder struct {
	mu       sync.Mutex
	commands map[string][]string
	files    map[string]map[string][]byte

	// Respond, when set, decides the result of each command
	Respond func(host, cmd string) (Result, error)
	// DialErr, when set, fails dials to the given hosts
	DialErr map[string]error
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{
		commands: make(map[string][]string),
		files:    make(map[string]map[string][]byte),
	}
}

func (r *Recorder) Dial(ctx context.Context, host string) (Session, error) {
	if err, ok := r.DialErr[host]; ok {
		return nil, err
	}
	return &recordedSession{r: r, host: host}, nil
}

// Commands returns the commands run on host, in order
func (r *Recorder) Commands(host string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands[host]...)
}

// Hosts returns every host that received at least one command or file
func (r *Recorder) Hosts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var hosts []string
	for h := range r.commands {
		seen[h] = true
		hosts = append(hosts, h)
	}
	for h := range r.files {
		if !seen[h] {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// File returns the content written to name on host
func (r *Recorder) File(host, name string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.files[host][name]
	return data, ok
}

type recordedSession struct {
	r    *Recorder
	host string
}

func (s *recordedSession) Run(ctx context.Context, cmd string) (Result, error) {
	s.r.mu.Lock()
	s.r.commands[s.host] = append(s.r.commands[s.host], cmd)
	respond := s.r.Respond
	s.r.mu.Unlock()

	if respond != nil {
		return respond(s.host, cmd)
	}
	return Result{}, nil
}

func (s *recordedSession) WriteFile(ctx context.Context, name string, data []byte, mode os.FileMode) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.r.files[s.host] == nil {
		s.r.files[s.host] = make(map[string][]byte)
	}
	s.r.files[s.host][name] = append([]byte(nil), data...)
	s.r.commands[s.host] = append(s.r.commands[s.host], fmt.Sprintf("# write %s %o", name, mode))
	return nil
}

func (s *recordedSession) Close() error { return nil }

// Match returns the recorded commands on host containing substr
func (r *Recorder) Match(host, substr string) []string {
	var out []string
	for _, c := range r.Commands(host) {
		if strings.Contains(c, substr) {
			out = append(out, c)
		}
	}
	return out
}
