package gating

import (
	"testing"

	"github.com/foundersbridge/foundersbridge/app/models"
)

func TestAdvisorIntroSendFullMatrix(t *testing.T) {
	types := []string{models.OrgTypeStartup, models.OrgTypeInvestor, models.OrgTypeAdvisor}
	statuses := []string{
		models.VerificationUnverified,
		models.VerificationPending,
		models.VerificationApproved,
		models.VerificationRejected,
	}

	for _, orgType := range types {
		for _, status := range statuses {
			got := Evaluate(CapabilityAdvisorIntroSend, orgType, status)
			want := orgType == models.OrgTypeAdvisor && status == models.VerificationApproved
			if got.Allowed != want {
				t.Fatalf("Evaluate(advisor_intro_send, %s, %s) allowed=%v, want %v", orgType, status, got.Allowed, want)
			}
			if !got.Allowed && got.Message == "" {
				t.Fatalf("denial for (%s, %s) must carry a message", orgType, status)
			}
		}
	}
}

func TestInvestorIntroReceive(t *testing.T) {
	if r := Evaluate(CapabilityInvestorIntroReceive, models.OrgTypeInvestor, models.VerificationApproved); !r.Allowed {
		t.Fatalf("expected approved investor to be allowed: %s", r.Message)
	}
	if r := Evaluate(CapabilityInvestorIntroReceive, models.OrgTypeInvestor, models.VerificationPending); r.Allowed {
		t.Fatal("pending investor must be denied")
	}
	if r := Evaluate(CapabilityInvestorIntroReceive, models.OrgTypeAdvisor, models.VerificationApproved); r.Allowed {
		t.Fatal("advisor org must be denied investor capability")
	}
}

func TestUnknownCapabilityDenied(t *testing.T) {
	r := Evaluate(Capability("startup_launch_rockets"), models.OrgTypeStartup, models.VerificationApproved)
	if r.Allowed {
		t.Fatal("unknown capability must default to denied")
	}
	for _, known := range Capabilities() {
		if known == Capability("startup_launch_rockets") {
			t.Fatal("unknown capability listed in rule table")
		}
	}
}

func TestCapabilitiesEnumeratesRuleTable(t *testing.T) {
	caps := Capabilities()
	if len(caps) != len(rules) {
		t.Fatalf("Capabilities() returned %d keys, rule table has %d", len(caps), len(rules))
	}
	want := map[Capability]bool{
		CapabilityAdvisorIntroSend:     false,
		CapabilityInvestorIntroReceive: false,
	}
	for _, capability := range caps {
		if _, ok := want[capability]; ok {
			want[capability] = true
		}
	}
	for capability, seen := range want {
		if !seen {
			t.Fatalf("capability %q missing from enumeration", capability)
		}
	}
}

func TestEvaluateForOrg(t *testing.T) {
	org := &models.Organization{Type: models.OrgTypeAdvisor, VerificationStatus: models.VerificationApproved}
	if r := EvaluateForOrg(CapabilityAdvisorIntroSend, org); !r.Allowed {
		t.Fatalf("expected allowed, got %s", r.Message)
	}
	if r := EvaluateForOrg(CapabilityAdvisorIntroSend, nil); r.Allowed {
		t.Fatal("nil organization must be denied")
	}
}
