package node

import (
	"testing"
	"time"
)

func TestControlTimer(t *testing.T) {
	timer := NewFixedControlTimer()
	go timer.Run(time.Millisecond)
	defer timer.Shutdown()

	select {
	case <-timer.tickCh:
	case <-time.After(time.Second):
		t.Fatal("timer did not tick")
	}

	// no second tick without a reset
	select {
	case <-timer.tickCh:
		t.Fatal("timer ticked without a reset")
	case <-time.After(20 * time.Millisecond):
	}

	timer.resetCh <- time.Millisecond
	select {
	case <-timer.tickCh:
	case <-time.After(time.Second):
		t.Fatal("timer did not tick after reset")
	}

	timer.resetCh <- time.Hour
	timer.stopCh <- struct{}{}
}
