// Package gating answers "may this organization do X right now" from two
// facts: organization type and verification status. It is a pure lookup over
// a closed rule table; callers load the facts, the gate never touches the DB.
package gating

import (
	"fmt"
	"sort"

	"github.com/foundersbridge/foundersbridge/app/models"
)

// Capability is a named permission key. Adding one means adding a row to the
// rule table below, not branching in callers.
type Capability string

const (
	CapabilityAdvisorIntroSend     Capability = "advisor_intro_send"
	CapabilityInvestorIntroReceive Capability = "investor_intro_receive"
)

// Result is the gate verdict for a single capability.
type Result struct {
	Capability Capability `json:"capability"`
	Allowed    bool       `json:"allowed"`
	Message    string     `json:"message,omitempty"`
}

type requirement struct {
	orgType            string
	verificationStatus string
}

// One row per capability. Anything not listed is denied.
var rules = map[Capability]requirement{
	CapabilityAdvisorIntroSend:     {orgType: models.OrgTypeAdvisor, verificationStatus: models.VerificationApproved},
	CapabilityInvestorIntroReceive: {orgType: models.OrgTypeInvestor, verificationStatus: models.VerificationApproved},
}

// Evaluate decides whether an organization of the given type and verification
// status holds the capability. Total over all inputs; unknown capabilities
// and unknown type/status values are denied, never an error.
func Evaluate(capability Capability, orgType, verificationStatus string) Result {
	req, ok := rules[capability]
	if !ok {
		return Result{
			Capability: capability,
			Message:    fmt.Sprintf("unknown capability %q", capability),
		}
	}

	if orgType != req.orgType {
		return Result{
			Capability: capability,
			Message:    fmt.Sprintf("only %s organizations can use this", req.orgType),
		}
	}
	if verificationStatus != req.verificationStatus {
		return Result{
			Capability: capability,
			Message:    "your organization must be verified before using this",
		}
	}

	return Result{Capability: capability, Allowed: true}
}

// EvaluateForOrg is a convenience wrapper for callers that already hold the
// organization row.
func EvaluateForOrg(capability Capability, org *models.Organization) Result {
	if org == nil {
		return Result{Capability: capability, Message: "organization not found"}
	}
	return Evaluate(capability, org.Type, org.VerificationStatus)
}

// Capabilities lists the rule table's keys in stable order, so callers
// enumerating the table never drift from it.
func Capabilities() []Capability {
	keys := make([]Capability, 0, len(rules))
	for capability := range rules {
		keys = append(keys, capability)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
