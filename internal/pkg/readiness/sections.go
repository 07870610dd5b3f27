package readiness

import "github.com/foundersbridge/foundersbridge/app/models"

// Section identifies one profile section.
type Section string

const (
	SectionTeam           Section = "team"
	SectionProduct        Section = "product"
	SectionMarket         Section = "market"
	SectionTraction       Section = "traction"
	SectionFinancials     Section = "financials"
	SectionLegal          Section = "legal"
	SectionPitchMaterials Section = "pitch_materials"

	SectionThesis       Section = "thesis"
	SectionFirm         Section = "firm"
	SectionPreferences  Section = "preferences"
	SectionExpertise    Section = "expertise"
	SectionBackground   Section = "background"
	SectionAvailability Section = "availability"
)

var sectionLabels = map[Section]string{
	SectionTeam:           "Team",
	SectionProduct:        "Product",
	SectionMarket:         "Market",
	SectionTraction:       "Traction",
	SectionFinancials:     "Financials",
	SectionLegal:          "Legal",
	SectionPitchMaterials: "Pitch Materials",
	SectionThesis:         "Investment Thesis",
	SectionFirm:           "Firm Profile",
	SectionPreferences:    "Deal Preferences",
	SectionExpertise:      "Expertise",
	SectionBackground:     "Background",
	SectionAvailability:   "Availability",
}

// Label returns the human-readable section name used in missing-step lists.
func (s Section) Label() string {
	if l, ok := sectionLabels[s]; ok {
		return l
	}
	return string(s)
}

// SectionConfig pairs a section with its score weight in percent. Weights of
// a section set must sum to 100.
type SectionConfig struct {
	Section Section
	Weight  int
}

// StartupSections is the weighted section set for startup profiles, in
// display and missing-step order.
func StartupSections() []SectionConfig {
	return []SectionConfig{
		{Section: SectionTeam, Weight: 20},
		{Section: SectionProduct, Weight: 20},
		{Section: SectionMarket, Weight: 15},
		{Section: SectionTraction, Weight: 15},
		{Section: SectionFinancials, Weight: 15},
		{Section: SectionLegal, Weight: 10},
		{Section: SectionPitchMaterials, Weight: 5},
	}
}

// InvestorSections is the smaller section set for investor profiles.
func InvestorSections() []SectionConfig {
	return []SectionConfig{
		{Section: SectionThesis, Weight: 40},
		{Section: SectionFirm, Weight: 35},
		{Section: SectionPreferences, Weight: 25},
	}
}

// AdvisorSections is the section set for advisor profiles.
func AdvisorSections() []SectionConfig {
	return []SectionConfig{
		{Section: SectionExpertise, Weight: 50},
		{Section: SectionBackground, Weight: 30},
		{Section: SectionAvailability, Weight: 20},
	}
}

// SectionsForOrgType picks the section set for an organization type.
func SectionsForOrgType(orgType string) []SectionConfig {
	switch orgType {
	case models.OrgTypeInvestor:
		return InvestorSections()
	case models.OrgTypeAdvisor:
		return AdvisorSections()
	default:
		return StartupSections()
	}
}

// BuildInputs merges a section config with persisted completion percentages.
// Sections without a stored row count as 0% complete.
func BuildInputs(cfg []SectionConfig, rows []models.ProfileSection) []SectionInput {
	byKey := make(map[string]int, len(rows))
	for _, r := range rows {
		byKey[r.Section] = r.CompletionPercent
	}

	inputs := make([]SectionInput, 0, len(cfg))
	for _, c := range cfg {
		inputs = append(inputs, SectionInput{
			Section:           c.Section,
			Weight:            c.Weight,
			CompletionPercent: byKey[string(c.Section)],
		})
	}
	return inputs
}
