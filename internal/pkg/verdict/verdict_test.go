package verdict

import (
	"errors"
	"fmt"
	"testing"
)

func TestAsDenial(t *testing.T) {
	err := Deny("upgrade to %s to continue", "Pro")
	msg, ok := AsDenial(err)
	if !ok {
		t.Fatalf("expected denial, got %v", err)
	}
	if msg != "upgrade to Pro to continue" {
		t.Fatalf("unexpected message %q", msg)
	}

	wrapped := fmt.Errorf("accept failed: %w", err)
	if _, ok := AsDenial(wrapped); !ok {
		t.Fatalf("expected wrapped denial to unwrap")
	}

	if _, ok := AsDenial(ErrConflict); ok {
		t.Fatalf("conflict must not be a denial")
	}
}

func TestConfigErr(t *testing.T) {
	err := ConfigErr("weights sum to %d", 95)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if _, ok := AsDenial(err); ok {
		t.Fatalf("config error must not be a denial")
	}
}
