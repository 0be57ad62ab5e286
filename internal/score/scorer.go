package score

import (
	"github.com/ppiankov/trustbrowser/internal/model"
)

// Signal weights. They sum to exactly 1.0.
const (
	WeightProofScore           = 0.35
	WeightEmbeddingSimilarity  = 0.25
	WeightFingerprintIntegrity = 0.15
	WeightPublisherCommitment  = 0.10
	WeightParanetCuration      = 0.10
	WeightFreshness            = 0.05
)

// Badge thresholds
const (
	VerifiedFingerprintThreshold = 0.7
	HighAvailabilityThreshold    = 0.7
	ParanetCuratedThreshold      = 0.5
)

// Scorer calculates the composite truth score
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate combines the signals into a composite score and badges. It is a
// pure function of its input: out-of-range signals are not renormalized.
func (s *Scorer) Calculate(signals model.TruthSignals) model.TruthScoreResult {
	breakdown := []model.SignalContrib{
		contrib(model.SignalProofScore, WeightProofScore, signals.ProofScore),
		contrib(model.SignalEmbeddingSimilarity, WeightEmbeddingSimilarity, signals.EmbeddingSimilarity),
		contrib(model.SignalFingerprintIntegrity, WeightFingerprintIntegrity, signals.FingerprintIntegrity),
		contrib(model.SignalPublisherCommitment, WeightPublisherCommitment, signals.PublisherCommitment),
		contrib(model.SignalParanetCuration, WeightParanetCuration, signals.ParanetCuration),
		contrib(model.SignalFreshness, WeightFreshness, signals.Freshness),
	}

	composite := 0.0
	for _, c := range breakdown {
		composite += c.Contribution
	}

	return model.TruthScoreResult{
		Composite: composite,
		Badges: model.Badges{
			VerifiedFingerprint: signals.FingerprintIntegrity >= VerifiedFingerprintThreshold,
			HighAvailability:    signals.ProofScore >= HighAvailabilityThreshold,
			ParanetCurated:      signals.ParanetCuration >= ParanetCuratedThreshold,
		},
		Breakdown: breakdown,
	}
}

func contrib(name model.SignalName, weight, value float64) model.SignalContrib {
	return model.SignalContrib{
		Signal:       name,
		Weight:       weight,
		Value:        value,
		Contribution: weight * value,
	}
}
