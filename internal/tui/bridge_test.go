package tui

import (
	"context"
	"testing"
	"time"
)

func TestProgramRef_SendWithoutProgram(t *testing.T) {
	ref := &programRef{}
	if ref.Send(TickMsg(time.Now())) {
		t.Error("Send() without program = true, want false")
	}
}

func TestBridge_ConsumeWithoutProgram(t *testing.T) {
	b := NewBridge()
	if err := b.Consume(context.Background(), sampleRecord("scavenge", 2, 1)); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
}
