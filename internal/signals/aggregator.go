// Package signals gathers the independent truth signals for a knowledge
// asset. Every signal is fetched in isolation and falls back to 0 on any
// failure.
package signals

import (
	"context"
	"math"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/trustbrowser/internal/chain"
	"github.com/ppiankov/trustbrowser/internal/model"
)

// AssetInfo is the textual metadata of an asset used for similarity and
// freshness
type AssetInfo struct {
	Headline string
	Modified time.Time // Zero when the asset carries no modification time
}

// AssetLookup fetches asset metadata from the graph
type AssetLookup interface {
	AssetInfo(ctx context.Context, ual string) (AssetInfo, bool)
}

// Aggregator computes TruthSignals
type Aggregator struct {
	lookup   AssetLookup
	reader   chain.Reader // nil when no chain endpoint is configured
	chainCfg model.ChainConfig
	fixed    model.SignalsConfig
	now      func() time.Time
	logger   *zap.Logger
}

// Option customizes an Aggregator
type Option func(*Aggregator)

// WithClock overrides the time source used for freshness
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAggregator creates an aggregator. lookup and reader may be nil; the
// dependent signals are then 0.
func NewAggregator(cfg *model.Config, lookup AssetLookup, reader chain.Reader, opts ...Option) *Aggregator {
	a := &Aggregator{
		lookup:   lookup,
		reader:   reader,
		chainCfg: cfg.Chain,
		fixed:    cfg.Signals,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Signals gathers all signals for (ual, query). It never fails; each signal
// independently defaults to 0.
func (a *Aggregator) Signals(ctx context.Context, ual, query string) model.TruthSignals {
	out := model.TruthSignals{
		PublisherCommitment: model.Clamp01(a.fixed.PublisherCommitment),
		ParanetCuration:     model.Clamp01(a.fixed.ParanetCuration),
	}

	var g errgroup.Group
	g.Go(func() error {
		if a.lookup == nil {
			return nil
		}
		info, ok := a.lookup.AssetInfo(ctx, ual)
		if !ok {
			a.logger.Debug("asset info unavailable", zap.String("ual", ual))
			return nil
		}
		out.EmbeddingSimilarity = Similarity(query, info.Headline)
		out.Freshness = Freshness(info.Modified, a.now())
		return nil
	})
	g.Go(func() error {
		out.ProofScore = a.proofScore(ctx, ual)
		return nil
	})
	g.Go(func() error {
		out.FingerprintIntegrity = a.fingerprintIntegrity(ctx, ual)
		return nil
	})
	_ = g.Wait()

	return out
}

func (a *Aggregator) proofScore(ctx context.Context, ual string) float64 {
	addr := a.chainCfg.RandomSamplingAddress
	if addr == "" || a.reader == nil {
		return 0
	}
	tokenID, ok := chain.TokenID(ual)
	if !ok {
		return 0
	}

	for _, method := range []string{"getProofScore", "proofScore"} {
		values, err := a.reader.ReadContract(ctx, addr, chain.ProofScoreABI, method, tokenID)
		if err != nil {
			a.logger.Debug("proof score read failed", zap.String("method", method), zap.Error(err))
			continue
		}
		if raw, ok := firstBigInt(values); ok {
			return NormalizeProofScore(raw)
		}
	}
	return 0
}

func (a *Aggregator) fingerprintIntegrity(ctx context.Context, ual string) float64 {
	addr := a.chainCfg.ContentAssetStorageAddress
	if addr == "" || a.reader == nil {
		return 0
	}
	tokenID, ok := chain.TokenID(ual)
	if !ok {
		return 0
	}

	values, err := a.reader.ReadContract(ctx, addr, chain.AssertionsABI, "getAssertionIds", tokenID)
	if err == nil {
		if len(values) > 0 {
			if ids, ok := values[0].([][32]byte); ok && len(ids) > 0 {
				return 1
			}
		}
		return 0
	}
	a.logger.Debug("getAssertionIds failed, trying index lookup", zap.Error(err))

	values, err = a.reader.ReadContract(ctx, addr, chain.AssertionsABI, "getAssertionIdByIndex", tokenID, big.NewInt(0))
	if err != nil || len(values) == 0 {
		return 0
	}
	if id, ok := values[0].([32]byte); ok && id != ([32]byte{}) {
		return 1
	}
	return 0
}

func firstBigInt(values []any) (*big.Int, bool) {
	if len(values) == 0 {
		return nil, false
	}
	v, ok := values[0].(*big.Int)
	return v, ok && v != nil
}

var proofScale = new(big.Float).SetFloat64(1e18)

// NormalizeProofScore scales a raw 18-decimal proof score into [0,1]
func NormalizeProofScore(raw *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), proofScale).Float64()
	return model.Clamp01(f)
}

// Similarity is the token-set Jaccard overlap of the lower-cased,
// whitespace-split tokens of a and b
func Similarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)

	inter := 0
	union := len(tb)
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		} else {
			union++
		}
	}
	if union < 1 {
		union = 1
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}

// Freshness is 1 for content modified within a day and 1/age-in-days after
// that. A zero timestamp yields 0.
func Freshness(modified, now time.Time) float64 {
	if modified.IsZero() {
		return 0
	}
	days := math.Max(1, now.Sub(modified).Hours()/24)
	return model.Clamp01(1 / days)
}
