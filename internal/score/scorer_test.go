package score

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ppiankov/trustbrowser/internal/model"
)

const epsilon = 1e-9

func TestScorer_Calculate_AllOnes(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Calculate(model.TruthSignals{
		ProofScore:           1,
		EmbeddingSimilarity:  1,
		FingerprintIntegrity: 1,
		PublisherCommitment:  1,
		ParanetCuration:      1,
		Freshness:            1,
	})

	if math.Abs(result.Composite-1.0) > epsilon {
		t.Errorf("Expected composite 1.0, got %v", result.Composite)
	}
	if !result.Badges.VerifiedFingerprint || !result.Badges.HighAvailability || !result.Badges.ParanetCurated {
		t.Errorf("Expected all badges set, got %+v", result.Badges)
	}
}

func TestScorer_Calculate_AllZero(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Calculate(model.TruthSignals{})

	if result.Composite != 0 {
		t.Errorf("Expected composite 0, got %v", result.Composite)
	}
	if result.Badges.VerifiedFingerprint || result.Badges.HighAvailability || result.Badges.ParanetCurated {
		t.Errorf("Expected no badges, got %+v", result.Badges)
	}
}

func TestScorer_Calculate_Weights(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name    string
		signals model.TruthSignals
		want    float64
	}{
		{"proof", model.TruthSignals{ProofScore: 1}, 0.35},
		{"similarity", model.TruthSignals{EmbeddingSimilarity: 1}, 0.25},
		{"fingerprint", model.TruthSignals{FingerprintIntegrity: 1}, 0.15},
		{"publisher", model.TruthSignals{PublisherCommitment: 1}, 0.10},
		{"paranet", model.TruthSignals{ParanetCuration: 1}, 0.10},
		{"freshness", model.TruthSignals{Freshness: 1}, 0.05},
		{"placeholder defaults", model.TruthSignals{PublisherCommitment: 0.3, ParanetCuration: 0.2}, 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Calculate(tt.signals).Composite
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestScorer_Calculate_BadgeThresholds(t *testing.T) {
	scorer := NewScorer()

	at := scorer.Calculate(model.TruthSignals{FingerprintIntegrity: 0.7, ProofScore: 0.7, ParanetCuration: 0.5})
	if !at.Badges.VerifiedFingerprint || !at.Badges.HighAvailability || !at.Badges.ParanetCurated {
		t.Errorf("Expected badges at thresholds, got %+v", at.Badges)
	}

	below := scorer.Calculate(model.TruthSignals{FingerprintIntegrity: 0.69, ProofScore: 0.69, ParanetCuration: 0.49})
	if below.Badges.VerifiedFingerprint || below.Badges.HighAvailability || below.Badges.ParanetCurated {
		t.Errorf("Expected no badges below thresholds, got %+v", below.Badges)
	}
}

func TestScorer_Calculate_BoundedForUnitInputs(t *testing.T) {
	scorer := NewScorer()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		s := model.TruthSignals{
			ProofScore:           rng.Float64(),
			EmbeddingSimilarity:  rng.Float64(),
			FingerprintIntegrity: rng.Float64(),
			PublisherCommitment:  rng.Float64(),
			ParanetCuration:      rng.Float64(),
			Freshness:            rng.Float64(),
		}
		c := scorer.Calculate(s).Composite
		if c < 0 || c > 1+epsilon {
			t.Fatalf("Composite %v out of [0,1] for %+v", c, s)
		}
	}
}

func TestScorer_Calculate_NoRenormalization(t *testing.T) {
	scorer := NewScorer()

	got := scorer.Calculate(model.TruthSignals{ProofScore: 2}).Composite
	if math.Abs(got-0.70) > epsilon {
		t.Errorf("Expected out-of-range input to pass through unclamped (0.70), got %v", got)
	}
}

func TestScorer_Calculate_Breakdown(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Calculate(model.TruthSignals{ProofScore: 0.5, Freshness: 1})
	if len(result.Breakdown) != 6 {
		t.Fatalf("Expected 6 breakdown entries, got %d", len(result.Breakdown))
	}

	sum := 0.0
	weights := 0.0
	for _, c := range result.Breakdown {
		sum += c.Contribution
		weights += c.Weight
	}
	if math.Abs(sum-result.Composite) > epsilon {
		t.Errorf("Breakdown sum %v != composite %v", sum, result.Composite)
	}
	if math.Abs(weights-1.0) > epsilon {
		t.Errorf("Weights sum to %v, want 1.0", weights)
	}
	if result.Breakdown[0].Signal != model.SignalProofScore || result.Breakdown[0].Contribution != 0.175 {
		t.Errorf("Unexpected proof contribution: %+v", result.Breakdown[0])
	}
}
