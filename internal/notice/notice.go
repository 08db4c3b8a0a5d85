// Package notice carries short user-facing messages (the CLI prints them,
// tests record them) so that failures never have to crash a view.
package notice

import (
	"log"
	"sync"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

type Notice struct {
	Level   Level
	Message string
}

type Notifier interface {
	Notify(level Level, message string)
}

// LogNotifier writes notices through the standard logger.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(level Level, message string) {
	if n.Logger != nil {
		n.Logger.Printf("notice level=%s message=%q", level, message)
		return
	}
	log.Printf("notice level=%s message=%q", level, message)
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Level: level, Message: message})
}

func (r *Recorder) All() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Last returns the most recent notice, or the zero value.
func (r *Recorder) Last() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}
	}
	return r.notices[len(r.notices)-1]
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(Level, string) {}
