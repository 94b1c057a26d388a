package services

import (
	"strings"
	"testing"

	"duofinance/internal/models"
	"duofinance/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db, nopLogger())
	user := testutil.CreateTestUser(t, db)

	svc.Log(user.ID, "REGISTER", "user", user.ID, "127.0.0.1", map[string]any{
		"email":    "jonathan@example.com",
		"password": "hunter2",
	})
	svc.Log(user.ID, "DELETE_TRANSACTION", "transaction", "tx-1", "127.0.0.1", nil)

	var entries []models.AuditLog
	if err := db.Where("user_id = ?", user.ID).Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}

	changes := entries[0].Changes
	if strings.Contains(changes, "hunter2") {
		t.Errorf("password leaked into audit log: %s", changes)
	}
	if strings.Contains(changes, "jonathan@example.com") {
		t.Errorf("email stored unmasked: %s", changes)
	}
	if !strings.Contains(changes, "jon***@example.com") {
		t.Errorf("expected masked email, got %s", changes)
	}
	if entries[1].Changes != "" {
		t.Errorf("expected empty changes, got %q", entries[1].Changes)
	}
}
