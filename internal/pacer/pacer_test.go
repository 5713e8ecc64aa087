package pacer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed_Wait(t *testing.T) {
	p := NewFixed(20 * time.Millisecond)

	start := time.Now()
	assert.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestFixed_ZeroDelay(t *testing.T) {
	var p *Fixed
	assert.NoError(t, p.Wait(context.Background()))
	assert.NoError(t, NewFixed(0).Wait(context.Background()))
}

func TestFixed_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFixed(time.Hour).Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCounting(t *testing.T) {
	c := &Counting{}
	for range 3 {
		assert.NoError(t, c.Wait(context.Background()))
	}

	assert.Equal(t, 3, c.Waits)
}
