package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/foundersbridge/foundersbridge/app/models"
)

func TestNormalizeInterval(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "monthly", want: "monthly"},
		{in: "month", want: "monthly"},
		{in: "annual", want: "annual"},
		{in: "year", want: "annual"},
		{in: "YEARLY", want: "annual"},
		{in: "weekly", want: "unknown"},
		{in: "", want: "unknown"},
	}

	for _, tt := range tests {
		if got := normalizeInterval(tt.in); got != tt.want {
			t.Fatalf("normalizeInterval(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsEntitlingStatus(t *testing.T) {
	for _, status := range []string{"active", "trialing", " Active "} {
		if !isEntitlingStatus(status) {
			t.Fatalf("expected status %q to be entitling", status)
		}
	}
	for _, status := range []string{"past_due", "canceled", "incomplete", "paused", ""} {
		if isEntitlingStatus(status) {
			t.Fatalf("expected status %q to be non-entitling", status)
		}
	}
}

func TestPlanRank(t *testing.T) {
	plans := []models.BillingPlan{
		{PlanCode: "startup_free", Tier: 0},
		{PlanCode: "startup_growth", Tier: 1},
		{PlanCode: "startup_scale", Tier: 2},
	}

	if planRank("startup_free", plans) >= planRank("startup_growth", plans) {
		t.Fatal("expected growth to outrank free")
	}
	if planRank("startup_growth", plans) >= planRank("startup_scale", plans) {
		t.Fatal("expected scale to outrank growth")
	}
	if planRank("nonexistent", plans) != -1 {
		t.Fatal("unknown plan code must rank below catalog")
	}
}

func TestCurrentPeriodFallsBackToCalendarMonth(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	start, end := currentPeriod(nil, now)
	if start != time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("period start = %v", start)
	}
	if end != time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("period end = %v", end)
	}

	ps := time.Date(2026, time.February, 20, 0, 0, 0, 0, time.UTC)
	pe := ps.AddDate(0, 1, 0)
	sub := &models.Subscription{CurrentPeriodStart: &ps, CurrentPeriodEnd: &pe}
	start, end = currentPeriod(sub, now)
	if !start.Equal(ps) || !end.Equal(pe) {
		t.Fatalf("provider period not honored: %v..%v", start, end)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"subscription.updated"}`)
	secret := "whsec_test"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	valid := hex.EncodeToString(mac.Sum(nil))

	if !VerifyWebhookSignature(payload, valid, secret) {
		t.Fatal("valid signature must verify")
	}
	if !VerifyWebhookSignature(payload, "sha256="+valid, secret) {
		t.Fatal("prefixed signature must verify")
	}
	if VerifyWebhookSignature(payload, "", secret) {
		t.Fatal("empty signature must fail")
	}
	if VerifyWebhookSignature(payload, "deadbeef", "") {
		t.Fatal("empty secret must fail")
	}
	if VerifyWebhookSignature(payload, "not-hex!", secret) {
		t.Fatal("malformed signature must fail")
	}
	if VerifyWebhookSignature(payload, "deadbeef", secret) {
		t.Fatal("wrong signature must fail")
	}
}
