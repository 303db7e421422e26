package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelValid(t *testing.T) {
	for _, ch := range Channels {
		assert.True(t, ch.Valid(), ch)
	}
	assert.False(t, Channel("fax").Valid())
	assert.False(t, Channel("").Valid())
}
