package notify

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestCenter_DrainOrder(t *testing.T) {
	c := NewCenter(10, quietLogger())
	c.Info("catalog refreshed")
	c.Error("Failed to update cart")
	c.Success("Order placed")

	got := c.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, LevelInfo, got[0].Level)
	assert.Equal(t, "Failed to update cart", got[1].Message)
	assert.Equal(t, LevelSuccess, got[2].Level)
	assert.NotEqual(t, got[0].ID, got[1].ID)

	assert.Empty(t, c.Drain())
	assert.Zero(t, c.Len())
}

func TestCenter_DropsOldest(t *testing.T) {
	c := NewCenter(2, quietLogger())
	c.Info("one")
	c.Info("two")
	c.Info("three")

	got := c.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Message)
	assert.Equal(t, "three", got[1].Message)
}

func TestCenter_DefaultCapacity(t *testing.T) {
	c := NewCenter(0, nil)
	for i := 0; i < DefaultCapacity+5; i++ {
		c.Info("x")
	}
	assert.Equal(t, DefaultCapacity, c.Len())
}

var _ Notifier = (*Center)(nil)
var _ Notifier = Discard{}
