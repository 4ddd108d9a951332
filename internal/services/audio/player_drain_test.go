package audio

import (
	"context"
	"testing"
	"time"
)

func TestWaitForDrainWaitsForQueuedFrames(t *testing.T) {
	send := make(chan []byte, 8)
	for i := 0; i < 3; i++ {
		send <- []byte{0xF8}
	}

	// Consume like the voice sender, one frame per interval.
	go func() {
		for range send {
			time.Sleep(frameInterval)
		}
	}()

	start := time.Now()
	waitForDrain(context.Background(), send)
	elapsed := time.Since(start)

	if len(send) != 0 {
		t.Errorf("Expected queue to be empty, %d frames left", len(send))
	}
	if elapsed < 2*frameInterval {
		t.Errorf("Returned after %v, before the queued frames were sent", elapsed)
	}
	close(send)
}

func TestWaitForDrainStopsOnCancel(t *testing.T) {
	send := make(chan []byte, 8)
	send <- []byte{0xF8} // never consumed

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		waitForDrain(ctx, send)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waitForDrain did not return after cancel")
	}
}
