package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundMinor(t *testing.T) {
	assert.InDelta(t, 10.01, RoundMinor(10.005), 0.0001)
	assert.InDelta(t, 33.33, RoundMinor(100.0/3.0), 0.0001)
	assert.InDelta(t, -2.50, RoundMinor(-2.504), 0.0001)
}

func TestEqualShare(t *testing.T) {
	assert.InDelta(t, 20.00, EqualShare(60.00, 3), 0.0001)
	assert.InDelta(t, 33.33, EqualShare(100.00, 3), 0.0001)
	assert.Equal(t, 0.0, EqualShare(10.00, 0))

	// Every share identical; the sum may undershoot by the residual.
	share := EqualShare(100.00, 3)
	assert.InDelta(t, 99.99, share*3, 0.0001)
}
