package model

// TruthSignals holds the independent trust signals for one asset and query.
// Every value is expected in [0,1].
type TruthSignals struct {
	ProofScore           float64 `json:"proof_score"`
	EmbeddingSimilarity  float64 `json:"embedding_similarity"`
	FingerprintIntegrity float64 `json:"fingerprint_integrity"`
	PublisherCommitment  float64 `json:"publisher_commitment"`
	ParanetCuration      float64 `json:"paranet_curation"`
	Freshness            float64 `json:"freshness"`
}

// Badges are boolean flags derived from TruthSignals by fixed thresholds
type Badges struct {
	VerifiedFingerprint bool `json:"verified_fingerprint"`
	HighAvailability    bool `json:"high_availability"`
	ParanetCurated      bool `json:"paranet_curated"`
}

// TruthScoreResult is the composite truth score and its badges
type TruthScoreResult struct {
	Composite float64         `json:"composite"`
	Badges    Badges          `json:"badges"`
	Breakdown []SignalContrib `json:"breakdown,omitempty"` // Transparent per-signal contribution
}

// SignalName identifies one truth signal
type SignalName string

const (
	SignalProofScore           SignalName = "proof_score"
	SignalEmbeddingSimilarity  SignalName = "embedding_similarity"
	SignalFingerprintIntegrity SignalName = "fingerprint_integrity"
	SignalPublisherCommitment  SignalName = "publisher_commitment"
	SignalParanetCuration      SignalName = "paranet_curation"
	SignalFreshness            SignalName = "freshness"
)

// SignalContrib shows how one signal contributed to the composite
type SignalContrib struct {
	Signal       SignalName `json:"signal"`
	Weight       float64    `json:"weight"`
	Value        float64    `json:"value"`
	Contribution float64    `json:"contribution"` // weight * value
}

// Clamp01 clamps v into [0,1]
func Clamp01(v float64) float64 {
	if v != v || v < 0 { // NaN or negative
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
