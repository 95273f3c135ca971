package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default %d, got %d", DefaultLimit, got)
	}
	if got := NormalizeLimit(-5); got != DefaultLimit {
		t.Fatalf("expected default %d, got %d", DefaultLimit, got)
	}
	if got := NormalizeLimit(1000); got != MaxLimit {
		t.Fatalf("expected max %d, got %d", MaxLimit, got)
	}
	if got := NormalizeLimit(25); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
	if got := LimitWithBuffer(25); got != 26 {
		t.Fatalf("expected 26, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := Cursor{
		CreatedAt: time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
		ID:        uuid.New(),
	}

	encoded := EncodeCursor(cursor)
	parsed, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if parsed == nil {
		t.Fatal("expected parsed cursor")
	}
	if !parsed.CreatedAt.Equal(cursor.CreatedAt) || parsed.ID != cursor.ID {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	parsed, err := ParseCursor("   ")
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if parsed != nil {
		t.Fatal("expected nil cursor for blank input")
	}
}

func TestParseCursorInvalid(t *testing.T) {
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid encoding")
	}
}
