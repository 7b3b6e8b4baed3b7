package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shandysiswandi/dinebook/internal/notification/entity"
	"github.com/shandysiswandi/dinebook/internal/pkg/goerror"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
	"github.com/shandysiswandi/dinebook/internal/pkg/testkit"
	"github.com/shandysiswandi/dinebook/internal/pkg/valueobject"
)

func TestDeliveryLog(t *testing.T) {
	// Arrange
	schema, err := filepath.Abs("../../../../migrations/000002_notification.up.sql")
	if err != nil {
		t.Fatalf("schema path: %v", err)
	}
	db := NewDB(testkit.Postgres(t, schema), instrument.NewNoop())
	ctx := context.Background()

	dl := entity.CreateDeliveryLog{
		ID:        10,
		EventID:   1,
		UserID:    42,
		Channel:   entity.ChannelEmail,
		Template:  entity.TriggerKeyPasswordReset,
		Recipient: "jane@example.com",
		Status:    entity.DeliveryStatusQueued,
	}

	// Act
	err = db.CreateDeliveryLog(ctx, dl)

	// Assert
	if err != nil {
		t.Fatalf("CreateDeliveryLog() error = %v", err)
	}

	dl.ID = 11
	if err := db.CreateDeliveryLog(ctx, dl); !errors.Is(err, goerror.ErrConflict) {
		t.Fatalf("duplicate event error = %v, want ErrConflict", err)
	}

	err = db.UpdateDeliveryLog(ctx, entity.UpdateDeliveryLog{
		ID:       10,
		Status:   entity.DeliveryStatusFailed,
		Attempts: 3,
		Metadata: valueobject.JSONMap{"error": "smtp down"},
	})
	if err != nil {
		t.Fatalf("UpdateDeliveryLog() error = %v", err)
	}

	var status string
	var meta valueobject.JSONMap
	if err := db.conn.QueryRow(ctx, `SELECT status, metadata FROM notification_deliveries WHERE id = 10`).Scan(&status, &meta); err != nil {
		t.Fatalf("select: %v", err)
	}
	if status != "failed" || meta.GetString("error") != "smtp down" {
		t.Fatalf("row = %s %v", status, meta)
	}

	if err := db.UpdateDeliveryLog(ctx, entity.UpdateDeliveryLog{ID: 99, Status: entity.DeliveryStatusSent}); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("missing log error = %v, want ErrNotFound", err)
	}
}
