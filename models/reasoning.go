package models

// StatutoryLayer holds the governing law analysis
type StatutoryLayer struct {
	GoverningLaws       []string `json:"governing_laws"`
	Authority           string   `json:"authority"`
	FederalVsProvincial string   `json:"federal_vs_provincial"`
}

// ProceduralLayer holds forms, deadlines and the procedural traps
type ProceduralLayer struct {
	FormsRequired            []string `json:"forms_required"`
	Deadlines                []string `json:"deadlines"`
	ServiceRequirements      []string `json:"service_requirements"`
	EligibilityThresholds    []string `json:"eligibility_thresholds"`
	CommonProceduralFailures []string `json:"common_procedural_failures"`
}

// DefenceExceptionLayer holds what can change the outcome
type DefenceExceptionLayer struct {
	Exemptions             []string `json:"exemptions"`
	CreditsRefunds         []string `json:"credits_refunds"`
	Defences               []string `json:"defences"`
	Offsets                []string `json:"offsets"`
	WhatFactsChangeOutcome []string `json:"what_facts_change_outcome"`
}

// PracticalOutcomeLayer holds what usually happens in practice
type PracticalOutcomeLayer struct {
	WhatUsuallyHappens      []string `json:"what_usually_happens"`
	InstitutionalBehavior   string   `json:"institutional_behavior"`
	CommonUserMistakes      []string `json:"common_user_mistakes"`
	StrategicConsiderations []string `json:"strategic_considerations"`
}

// EvidenceRequirements lists what the person would need to prove their position
type EvidenceRequirements struct {
	DocumentsNeeded []string `json:"documents_needed"`
	WitnessTypes    []string `json:"witness_types"`
	ProofOfService  []string `json:"proof_of_service"`
}

// CitationMapping links a claim the writer may use to the chunks supporting it
type CitationMapping struct {
	Claim              string         `json:"claim"`
	SupportingChunkIDs []string       `json:"supporting_chunk_ids"`
	AuthorityLevel     AuthorityLevel `json:"source_authority"`
}

// ReasoningOutput represents the four-layer analysis. Layer order is fixed:
// statutory, procedural, defence/exception, practical outcome.
type ReasoningOutput struct {
	StatutoryLayer        StatutoryLayer        `json:"statutory_layer"`
	ProceduralLayer       ProceduralLayer       `json:"procedural_layer"`
	DefenceExceptionLayer DefenceExceptionLayer `json:"defence_exception_layer"`
	PracticalOutcomeLayer PracticalOutcomeLayer `json:"practical_outcome_layer"`
	EvidenceRequirements  EvidenceRequirements  `json:"evidence_requirements"`
	CitationMap           []CitationMapping     `json:"citation_map"`
	MissingInSources      []string              `json:"missing_in_sources"`
	AnxietyFactors        []string              `json:"anxiety_factors"`
}

// EmptyReasoning returns the all-empty skeleton used when the reasoner output
// cannot be parsed. Every list is non-nil so it serializes as [].
func EmptyReasoning() ReasoningOutput {
	return ReasoningOutput{
		StatutoryLayer: StatutoryLayer{GoverningLaws: []string{}},
		ProceduralLayer: ProceduralLayer{
			FormsRequired:            []string{},
			Deadlines:                []string{},
			ServiceRequirements:      []string{},
			EligibilityThresholds:    []string{},
			CommonProceduralFailures: []string{},
		},
		DefenceExceptionLayer: DefenceExceptionLayer{
			Exemptions:             []string{},
			CreditsRefunds:         []string{},
			Defences:               []string{},
			Offsets:                []string{},
			WhatFactsChangeOutcome: []string{},
		},
		PracticalOutcomeLayer: PracticalOutcomeLayer{
			WhatUsuallyHappens:      []string{},
			CommonUserMistakes:      []string{},
			StrategicConsiderations: []string{},
		},
		EvidenceRequirements: EvidenceRequirements{
			DocumentsNeeded: []string{},
			WitnessTypes:    []string{},
			ProofOfService:  []string{},
		},
		CitationMap:      []CitationMapping{},
		MissingInSources: []string{},
		AnxietyFactors:   []string{},
	}
}
