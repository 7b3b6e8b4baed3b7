package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/dinebook/internal/identity/entity"
	"github.com/shandysiswandi/dinebook/internal/pkg/goerror"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
	"github.com/shandysiswandi/dinebook/internal/pkg/testkit"
)

func TestResetOTPLifecycle(t *testing.T) {
	// Arrange
	c := NewCache(testkit.Redis(t), instrument.NewNoop())
	ctx := context.Background()
	issued := time.Unix(1_700_000_000, 0)

	// Act
	err := c.SaveResetOTP(ctx, "k1", entity.ResetOTP{UserID: 42, Secret: []byte{0, 1, 2}, IssuedAt: issued}, time.Minute)

	// Assert
	if err != nil {
		t.Fatalf("SaveResetOTP() error = %v", err)
	}

	rec, err := c.GetResetOTP(ctx, "k1")
	if err != nil {
		t.Fatalf("GetResetOTP() error = %v", err)
	}
	if rec.UserID != 42 || len(rec.Secret) != 3 || !rec.IssuedAt.Equal(issued) || rec.Attempts != 0 {
		t.Fatalf("record = %+v", rec)
	}

	for want := 1; want <= 2; want++ {
		got, err := c.ReserveResetOTPAttempt(ctx, "k1", 5)
		if err != nil || got != want {
			t.Fatalf("ReserveResetOTPAttempt() = %d, %v; want %d", got, err, want)
		}
	}

	if err := c.DeleteResetOTP(ctx, "k1"); err != nil {
		t.Fatalf("DeleteResetOTP() error = %v", err)
	}
	if _, err := c.GetResetOTP(ctx, "k1"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("GetResetOTP() after delete error = %v", err)
	}
}

func TestReserveResetOTPAttempt_Expired(t *testing.T) {
	c := NewCache(testkit.Redis(t), instrument.NewNoop())

	_, err := c.ReserveResetOTPAttempt(context.Background(), "missing", 5)

	if !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if n, _ := c.client.Exists(context.Background(), prefixResetOTP+"missing").Result(); n != 0 {
		t.Fatalf("record was created by increment")
	}
}

func TestReserveResetOTPAttempt_Limit(t *testing.T) {
	// Arrange
	c := NewCache(testkit.Redis(t), instrument.NewNoop())
	ctx := context.Background()
	rec := entity.ResetOTP{UserID: 7, Secret: []byte("s"), IssuedAt: time.Now()}
	if err := c.SaveResetOTP(ctx, "k", rec, time.Minute); err != nil {
		t.Fatalf("SaveResetOTP() error = %v", err)
	}

	// Act
	results := make(chan error, 10)
	for range 10 {
		go func() {
			_, err := c.ReserveResetOTPAttempt(ctx, "k", 3)
			results <- err
		}()
	}

	// Assert
	reserved, exhausted := 0, 0
	for range 10 {
		switch err := <-results; {
		case err == nil:
			reserved++
		case errors.Is(err, entity.ErrResetOTPExhausted):
			exhausted++
		default:
			t.Fatalf("ReserveResetOTPAttempt() error = %v", err)
		}
	}
	if reserved != 3 || exhausted != 7 {
		t.Fatalf("reserved = %d, exhausted = %d; want 3, 7", reserved, exhausted)
	}
	got, err := c.GetResetOTP(ctx, "k")
	if err != nil || got.Attempts != 3 {
		t.Fatalf("attempts = %v, %v; want 3", got, err)
	}
}

func TestSaveResetOTP_ResetsAttempts(t *testing.T) {
	c := NewCache(testkit.Redis(t), instrument.NewNoop())
	ctx := context.Background()
	rec := entity.ResetOTP{UserID: 1, Secret: []byte("s"), IssuedAt: time.Now()}

	if err := c.SaveResetOTP(ctx, "k", rec, time.Minute); err != nil {
		t.Fatalf("SaveResetOTP() error = %v", err)
	}
	if _, err := c.ReserveResetOTPAttempt(ctx, "k", 5); err != nil {
		t.Fatalf("ReserveResetOTPAttempt() error = %v", err)
	}
	if err := c.SaveResetOTP(ctx, "k", rec, time.Minute); err != nil {
		t.Fatalf("SaveResetOTP() error = %v", err)
	}

	got, err := c.GetResetOTP(ctx, "k")
	if err != nil || got.Attempts != 0 {
		t.Fatalf("attempts after resend = %v, %v", got, err)
	}
	if ttl := c.client.TTL(ctx, prefixResetOTP+"k").Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}
}

func TestAcquireResendCooldown(t *testing.T) {
	c := NewCache(testkit.Redis(t), instrument.NewNoop())
	ctx := context.Background()

	first, err := c.AcquireResendCooldown(ctx, "k", time.Minute)
	if err != nil || !first {
		t.Fatalf("first acquire = %v, %v", first, err)
	}

	second, err := c.AcquireResendCooldown(ctx, "k", time.Minute)
	if err != nil || second {
		t.Fatalf("second acquire = %v, %v; want false", second, err)
	}
}
