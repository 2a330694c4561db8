package parkers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGateLockedReflectsAnyParkedToken(t *testing.T) {
	g := NewGate()
	assert.False(t, g.Locked())

	g.Park("publish:topic-a")
	assert.True(t, g.Locked())

	g.Park("schedule:resource-b")
	assert.True(t, g.Locked())

	g.Unpark("publish:topic-a")
	assert.True(t, g.Locked(), "schedule token still parked")

	g.Unpark("schedule:resource-b")
	assert.False(t, g.Locked())
}

func TestGateWaitWakesOnUnpark(t *testing.T) {
	g := NewGate()
	g.Park("slot")

	woken := g.Wait()
	go func() {
		time.Sleep(5 * time.Millisecond)
		g.Unpark("slot")
	}()

	select {
	case <-woken:
	case <-time.After(time.Second):
		t.Fatal("Wait should wake after Unpark")
	}
	assert.False(t, g.Locked())
}

func TestGateParkCountedPerToken(t *testing.T) {
	g := NewGate()
	g.Park("token")
	g.Park("token")
	g.Unpark("token")
	assert.True(t, g.Locked(), "counted gate needs a matching Unpark per Park")
	g.Unpark("token")
	assert.False(t, g.Locked())
}
