// Package ident hands out the human readable identifiers used across the
// office ("CON-001", "PAC-014", "MED-003") and normalizes the ones callers
// send back.
package ident

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

type Kind string

const (
	KindAppointment Kind = "CON"
	KindPatient     Kind = "PAC"
	KindProvider    Kind = "MED"
)

var idPattern = regexp.MustCompile(`^([A-Z]{3})-(\d{3,})$`)

// Sequence allocates identifiers for a single kind. Implementations never
// hand out the same identifier twice.
type Sequence interface {
	Next(ctx context.Context) (string, error)
}

// Format renders the n-th identifier of a kind, zero padded to three digits.
func Format(kind Kind, n int64) string {
	return fmt.Sprintf("%s-%03d", kind, n)
}

// Normalize trims and upper-cases an identifier so lookups are case-insensitive.
func Normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Valid reports whether id is a well formed identifier of the given kind.
func Valid(kind Kind, id string) bool {
	m := idPattern.FindStringSubmatch(Normalize(id))
	if m == nil {
		return false
	}
	if Kind(m[1]) != kind {
		return false
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	return err == nil && n > 0
}

// Counter is an in-process Sequence. The zero value is not usable, build it
// with NewCounter.
type Counter struct {
	mu   sync.Mutex
	kind Kind
	next int64
}

func NewCounter(kind Kind) *Counter {
	return &Counter{kind: kind, next: 1}
}

func (c *Counter) Next(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := Format(c.kind, c.next)
	c.next++
	return id, nil
}

// Reset rewinds the counter to its first identifier. Only meant for tests and
// for stores that are recreated from scratch.
func (c *Counter) Reset() {
	c.mu.Lock()
	c.next = 1
	c.mu.Unlock()
}
