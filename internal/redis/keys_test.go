package redisclient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hackgods/consultation-scheduling/internal/ident"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "lock:provider:MED-001", lockKey("MED-001"))
	assert.Equal(t, "seq:CON", sequenceKey(ident.KindAppointment))
}
