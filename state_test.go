package nashws

import (
	"testing"

	"github.com/nash-io/nashws/internal/test/assert"
)

func TestStateFlag(t *testing.T) {
	t.Parallel()

	var f stateFlag
	assert.Equal(t, "initial state", stateConnecting, f.load())

	assert.Equal(t, "connecting to open", true, f.transition(stateConnecting, stateOpen))
	assert.Equal(t, "repeated transition", false, f.transition(stateConnecting, stateOpen))

	assert.Equal(t, "replaced state", stateOpen, f.advance(stateClosing))
	assert.Equal(t, "state", stateClosing, f.load())

	// advance never moves backwards.
	assert.Equal(t, "replaced state", stateClosing, f.advance(stateOpen))
	assert.Equal(t, "state", stateClosing, f.load())

	assert.Equal(t, "replaced state", stateClosing, f.advance(stateClosed))
	assert.Equal(t, "replaced state", stateClosed, f.advance(stateClosed))
	assert.Equal(t, "state string", "closed", f.load().String())
}
