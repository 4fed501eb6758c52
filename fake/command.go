// File: fake/command.go
// Package fake provides in-memory implementations of the transport
// contracts for testing and development.
// License: Apache-2.0

package fake

import (
	"fmt"
	"sync"

	"github.com/Kerr-srl/ubxlib/api"
)

// CommandTransport is a scriptable api.CommandTransport. Tests inject
// notifications with Notify and script transaction responses with
// Respond.
type CommandTransport struct {
	mu        sync.Mutex
	handlers  map[string]api.NotificationHandler
	responses map[string][]any
	failures  map[string]error
	requests  []api.Request

	addErr error
}

// NewCommandTransport creates an empty fake command transport.
func NewCommandTransport() *CommandTransport {
	return &CommandTransport{
		handlers:  make(map[string]api.NotificationHandler),
		responses: make(map[string][]any),
		failures:  make(map[string]error),
	}
}

// AddNotification implements api.CommandTransport.
func (t *CommandTransport) AddNotification(prefix string, h api.NotificationHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.addErr != nil {
		return t.addErr
	}
	t.handlers[prefix] = h
	return nil
}

// RemoveNotification implements api.CommandTransport.
func (t *CommandTransport) RemoveNotification(prefix string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, prefix)
	return nil
}

// Transact implements api.CommandTransport. The request is recorded;
// the response fields come from a prior Respond call.
func (t *CommandTransport) Transact(req api.Request) (api.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, req)
	if err := t.failures[req.Command]; err != nil {
		return nil, err
	}
	return &fieldReader{fields: t.responses[req.Command]}, nil
}

// Notify invokes the handler registered for prefix with the given
// fields, emulating an unsolicited notification. Returns false when
// no handler is registered.
func (t *CommandTransport) Notify(prefix string, fields ...any) bool {
	t.mu.Lock()
	h := t.handlers[prefix]
	t.mu.Unlock()
	if h == nil {
		return false
	}
	h(&fieldReader{fields: fields})
	return true
}

// HasNotification reports whether a handler is registered for prefix.
func (t *CommandTransport) HasNotification(prefix string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handlers[prefix] != nil
}

// Respond scripts the response fields for a command.
func (t *CommandTransport) Respond(command string, fields ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[command] = fields
}

// FailTransact makes Transact fail for a command.
func (t *CommandTransport) FailTransact(command string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[command] = err
}

// FailAddNotification makes every AddNotification fail with err.
func (t *CommandTransport) FailAddNotification(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addErr = err
}

// Requests returns every transacted request, oldest first.
func (t *CommandTransport) Requests() []api.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]api.Request, len(t.requests))
	copy(out, t.requests)
	return out
}

// fieldReader walks a field list, implementing api.FieldReader.
type fieldReader struct {
	fields []any
	pos    int
}

func (r *fieldReader) next() (any, error) {
	if r.pos >= len(r.fields) {
		return nil, fmt.Errorf("no more fields")
	}
	f := r.fields[r.pos]
	r.pos++
	return f, nil
}

func (r *fieldReader) ReadInt() (int32, error) {
	f, err := r.next()
	if err != nil {
		return 0, err
	}
	switch v := f.(type) {
	case int:
		return int32(v), nil
	case int32:
		return v, nil
	default:
		return 0, fmt.Errorf("field %d is %T, not an int", r.pos-1, f)
	}
}

func (r *fieldReader) ReadString() (string, error) {
	f, err := r.next()
	if err != nil {
		return "", err
	}
	s, ok := f.(string)
	if !ok {
		return "", fmt.Errorf("field %d is %T, not a string", r.pos-1, f)
	}
	return s, nil
}
