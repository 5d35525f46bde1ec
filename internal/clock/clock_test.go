package clock

import (
	"testing"
	"time"
)

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c := NewFixedClock(start)

	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	c.Advance(7 * time.Hour)
	want := start.Add(7 * time.Hour)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("after Advance: Now() = %v, want %v", got, want)
	}

	c.Set(start)
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("after Set: Now() = %v, want %v", got, start)
	}
}

func TestOffsetClock(t *testing.T) {
	base := NewFixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewOffsetClock(base, 90*time.Second)

	want := base.Now().Add(90 * time.Second)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}

	// The offset tracks the base clock as it moves.
	base.Advance(time.Hour)
	want = base.Now().Add(90 * time.Second)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("after base advance: Now() = %v, want %v", got, want)
	}
}

func TestSystemClockIsUTC(t *testing.T) {
	if loc := (SystemClock{}).Now().Location(); loc != time.UTC {
		t.Errorf("SystemClock location = %v, want UTC", loc)
	}
}
