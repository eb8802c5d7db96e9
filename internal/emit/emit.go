// Package emit writes the one-line JSON envelope every status module reports through:
//
//	{"ok":1,"data":<value>}
//	{"ok":0,"data":null}
package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Emitter is the shared sink for status snapshots.
type Emitter interface {
	// Emit writes a present value.
	Emit(v any) error
	// EmitAbsent writes the explicit absence marker.
	EmitAbsent() error
}

type envelope struct {
	OK   uint8 `json:"ok"`
	Data any   `json:"data"`
}

// Printer writes envelopes to w, one per line. Safe for concurrent use.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Emit(v any) error {
	return p.write(envelope{OK: 1, Data: v})
}

func (p *Printer) EmitAbsent() error {
	return p.write(envelope{OK: 0, Data: nil})
}

func (p *Printer) write(e envelope) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	line = append(line, '\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.w.Write(line); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
