// Package notify delivers the transient success and error messages that
// follow user actions.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/juju/loggo/v2"

	"github.com/webtray/webtray/internal/types"
)

// Console prints messages for a terminal user.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Success(message string) {
	fmt.Fprintf(c.w, "✅ %s\n", message)
}

func (c *Console) Error(message string) {
	fmt.Fprintf(c.w, "❌ %s\n", message)
}

// Log sends messages to a loggo logger.
type Log struct {
	logger loggo.Logger
}

func NewLog(logger loggo.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Success(message string) { l.logger.Infof("%s", message) }
func (l *Log) Error(message string)   { l.logger.Errorf("%s", message) }

// Kind tells recorded notifications apart.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notification struct {
	Kind    Kind
	Message string
}

// Recorder keeps every notification; used by tests.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Success(message string) { r.add(KindSuccess, message) }
func (r *Recorder) Error(message string)   { r.add(KindError, message) }

func (r *Recorder) add(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Kind: kind, Message: message})
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Errors returns the messages of recorded error notifications.
func (r *Recorder) Errors() []string {
	var out []string
	for _, n := range r.All() {
		if n.Kind == KindError {
			out = append(out, n.Message)
		}
	}
	return out
}

// Discard drops everything.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}

var (
	_ types.Notifier = (*Console)(nil)
	_ types.Notifier = (*Log)(nil)
	_ types.Notifier = (*Recorder)(nil)
	_ types.Notifier = Discard{}
)
