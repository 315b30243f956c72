// internal/storage/storage_test.go
package storage_test

import (
	"testing"

	"github.com/PearlCalc/extension/internal/storage"
	"github.com/PearlCalc/extension/pkg/core"
	"github.com/stretchr/testify/assert"
)

// discard is the smallest Backend; it exists to pin the interface shape.
type discard struct{ next uint }

func (d *discard) Init() error  { return nil }
func (d *discard) Close() error { return nil }

func (d *discard) RecordSolve(r *core.SolveRecord) error {
	d.next++
	r.ID = d.next
	return nil
}

func (d *discard) RecordTrace(r *core.TraceRecord) error {
	d.next++
	r.ID = d.next
	return nil
}

func TestBackendAssignsIDs(t *testing.T) {
	var b storage.Backend = &discard{}
	s := &core.SolveRecord{}
	tr := &core.TraceRecord{}

	assert.NoError(t, b.RecordSolve(s))
	assert.NoError(t, b.RecordTrace(tr))
	assert.Equal(t, uint(1), s.ID)
	assert.Equal(t, uint(2), tr.ID)

	_, isReader := b.(storage.Reader)
	assert.False(t, isReader)
}
