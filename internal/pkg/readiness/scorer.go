// Package readiness computes how investment-ready an organization profile is:
// a weighted score across profile sections, an unweighted completion
// percentage, and an eligibility verdict for discovery posting. The scorer is
// generic over a section list so the same code serves startup, investor and
// advisor profiles with different section sets.
package readiness

import (
	"math"

	"github.com/foundersbridge/foundersbridge/internal/pkg/verdict"
)

// Discovery eligibility thresholds. Each can fail independently and each
// failure is reported on its own.
const (
	MinCompletionForDiscovery = 70
	MinScoreForDiscovery      = 60
)

const missingDocsStep = "Required documents"

// SectionInput is one section's weight and current completion.
type SectionInput struct {
	Section           Section
	Weight            int
	CompletionPercent int
}

// SectionScore is the per-section breakdown in a readiness report.
// Contribution is weight * completion / 100, kept real-valued so rounding
// happens once over the sum.
type SectionScore struct {
	Section           Section `json:"section"`
	Weight            int     `json:"weight"`
	CompletionPercent int     `json:"completion_percent"`
	Contribution      float64 `json:"score_contribution"`
}

// Readiness is the aggregate verdict. Score weights section completion;
// CompletionPercent averages it unweighted. They are different numbers on
// purpose and must not be collapsed into one.
type Readiness struct {
	Score                    int            `json:"readiness_score"`
	CompletionPercent        int            `json:"profile_completion_percent"`
	EligibleForDiscoveryPost bool           `json:"eligible_for_discovery_post"`
	CompletionThresholdMet   bool           `json:"completion_threshold_met"`
	ScoreThresholdMet        bool           `json:"score_threshold_met"`
	RequiredDocsUploaded     bool           `json:"required_docs_uploaded"`
	MissingSteps             []string       `json:"missing_steps"`
	Sections                 []SectionScore `json:"section_scores"`
}

// Score computes the readiness report for a section list. Weights must sum
// to 100; anything else is a configuration defect, not a denial.
func Score(sections []SectionInput, requiredDocsUploaded bool) (Readiness, error) {
	if len(sections) == 0 {
		return Readiness{}, verdict.ConfigErr("readiness section set is empty")
	}

	weightSum := 0
	for _, s := range sections {
		weightSum += s.Weight
	}
	if weightSum != 100 {
		return Readiness{}, verdict.ConfigErr("readiness section weights sum to %d, want 100", weightSum)
	}

	var (
		scoreSum       float64
		completionSum  int
		scores         = make([]SectionScore, 0, len(sections))
		missing        = make([]string, 0, len(sections)+1)
		clampCompleted = func(v int) int {
			if v < 0 {
				return 0
			}
			if v > 100 {
				return 100
			}
			return v
		}
	)

	for _, s := range sections {
		completion := clampCompleted(s.CompletionPercent)
		contribution := float64(s.Weight) * float64(completion) / 100

		scoreSum += contribution
		completionSum += completion

		scores = append(scores, SectionScore{
			Section:           s.Section,
			Weight:            s.Weight,
			CompletionPercent: completion,
			Contribution:      contribution,
		})
		if completion < 100 {
			missing = append(missing, s.Section.Label())
		}
	}
	if !requiredDocsUploaded {
		missing = append(missing, missingDocsStep)
	}

	score := int(math.Round(scoreSum))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	completion := int(math.Round(float64(completionSum) / float64(len(sections))))

	completionMet := completion >= MinCompletionForDiscovery
	scoreMet := score >= MinScoreForDiscovery

	return Readiness{
		Score:                    score,
		CompletionPercent:        completion,
		EligibleForDiscoveryPost: completionMet && scoreMet && requiredDocsUploaded,
		CompletionThresholdMet:   completionMet,
		ScoreThresholdMet:        scoreMet,
		RequiredDocsUploaded:     requiredDocsUploaded,
		MissingSteps:             missing,
		Sections:                 scores,
	}, nil
}
