package clock

import (
	"testing"
	"time"
)

func TestFixed_Now(t *testing.T) {
	// Arrange
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := Fixed(at)

	// Act
	got := c.Now()

	// Assert
	if !got.Equal(at) {
		t.Fatalf("Now() = %v, want %v", got, at)
	}
}

func TestSystem_NowIsUTC(t *testing.T) {
	if loc := New().Now().Location(); loc != time.UTC {
		t.Fatalf("location = %v, want UTC", loc)
	}
}
