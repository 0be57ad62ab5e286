// Package pipeline orchestrates source resolution and truth scoring: it
// classifies input, races the graph backends, walks the answer sources in
// priority order and scores assets that carry an identifier.
package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ppiankov/trustbrowser/internal/answer"
	"github.com/ppiankov/trustbrowser/internal/classify"
	"github.com/ppiankov/trustbrowser/internal/graph"
	"github.com/ppiankov/trustbrowser/internal/llm"
	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/score"
	"github.com/ppiankov/trustbrowser/internal/transport"
)

// Graph is the backend surface resolution needs
type Graph interface {
	CurrentQuery(ctx context.Context, query string) ([]byte, bool)
	Search(ctx context.Context, path, query string) ([]byte, bool)
	SPARQL(ctx context.Context, sparql string) ([]byte, bool)
}

// SignalSource gathers truth signals for an asset
type SignalSource interface {
	Signals(ctx context.Context, ual, query string) model.TruthSignals
}

// Pipeline resolves inputs into answers and truth scores
type Pipeline struct {
	graph      Graph
	normalizer *answer.Normalizer
	generator  llm.Generator // nil disables the generative fallback
	signals    SignalSource  // nil disables scoring
	scorer     *score.Scorer
	logger     *zap.Logger
}

// Deps are the collaborators of a Pipeline
type Deps struct {
	Graph     Graph
	Explorers answer.Explorers
	Generator llm.Generator
	Signals   SignalSource
	Logger    *zap.Logger
}

// New creates a pipeline from its collaborators
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		graph:      deps.Graph,
		normalizer: answer.NewNormalizer(deps.Explorers),
		generator:  deps.Generator,
		signals:    deps.Signals,
		scorer:     score.NewScorer(),
		logger:     logger,
	}
}

// Result is the outcome of one address-bar submission
type Result struct {
	Input   string                  `json:"input"`
	Kind    string                  `json:"kind"`
	Target  *classify.Target        `json:"target,omitempty"`
	Answer  *model.AnswerRecord     `json:"answer,omitempty"`
	Signals *model.TruthSignals     `json:"signals,omitempty"`
	Truth   *model.TruthScoreResult `json:"truth,omitempty"`
}

// Run classifies input and either normalizes it into a navigable target or
// resolves and scores it as a query. It never fails.
func (p *Pipeline) Run(ctx context.Context, input string) Result {
	kind := classify.Classify(input)
	res := Result{Input: input, Kind: kind.String()}

	if kind == classify.Address {
		target := classify.Normalize(input)
		res.Target = &target
		return res
	}

	rec := p.Resolve(ctx, input)
	res.Answer = &rec
	res.Signals, res.Truth = p.Evaluate(ctx, input, rec)
	return res
}

// Evaluate scores rec when it carries an asset identifier
func (p *Pipeline) Evaluate(ctx context.Context, query string, rec model.AnswerRecord) (*model.TruthSignals, *model.TruthScoreResult) {
	if !rec.HasAsset() || p.signals == nil {
		return nil, nil
	}
	sig := p.signals.Signals(ctx, rec.AssetID, query)
	result := p.scorer.Calculate(sig)
	return &sig, &result
}

// raceLeg is the outcome of one backend in the opening race; a nil body
// means the backend failed
type raceLeg struct {
	source answer.Source
	body   []byte
}

// Resolve produces the answer record for query. The CURRENT /query call and
// the LEGACY /search call are raced; the remaining LEGACY sources and the
// generative fallback are consulted lazily in priority order. Total failure
// yields the error record.
func (p *Pipeline) Resolve(ctx context.Context, query string) model.AnswerRecord {
	raceCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	currentCh := make(chan raceLeg, 1)
	legacyCh := make(chan raceLeg, 1)
	launch := func(ch chan<- raceLeg, source answer.Source, call func(context.Context) ([]byte, bool)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, ok := call(raceCtx)
			if !ok {
				body = nil
			}
			ch <- raceLeg{source: source, body: body}
		}()
	}
	launch(currentCh, answer.CurrentQuery, func(ctx context.Context) ([]byte, bool) {
		return p.graph.CurrentQuery(ctx, query)
	})
	launch(legacyCh, answer.Search, func(ctx context.Context) ([]byte, bool) {
		return p.graph.Search(ctx, graph.SearchPath, query)
	})

	var (
		winner         *raceLeg
		legacyLeg      *raceLeg
		pendingCurrent <-chan raceLeg = currentCh
		pendingLegacy  <-chan raceLeg = legacyCh
	)
	for winner == nil && (pendingCurrent != nil || pendingLegacy != nil) {
		select {
		case leg := <-pendingCurrent:
			pendingCurrent = nil
			if leg.body != nil {
				winner = &leg
			}
		case leg := <-pendingLegacy:
			pendingLegacy = nil
			legacyLeg = &leg
			if leg.body != nil {
				winner = &leg
			}
		}
	}

	if winner != nil && winner.source == answer.CurrentQuery {
		if rec, ok := p.normalizer.Extract(answer.CurrentQuery, query, winner.body); ok {
			return rec
		}
		p.logger.Debug("current backend returned no item", zap.String("query", query))
	}

	// The LEGACY leg is still in flight when CURRENT won the race.
	if legacyLeg == nil && pendingLegacy != nil {
		leg := <-pendingLegacy
		legacyLeg = &leg
	}

	strategies := p.legacyChain(query, legacyLeg)
	rec, idx, ok := transport.FirstSuccess(ctx, strategies, func(ctx context.Context, s strategy) (model.AnswerRecord, bool) {
		return s.run(ctx)
	})
	if !ok {
		p.logger.Warn("no source produced an answer", zap.String("query", query))
		return model.ErrorRecord()
	}
	p.logger.Debug("answer resolved", zap.String("query", query), zap.Stringer("source", strategies[idx].source))
	return rec
}

// strategy is one answer source in the fallback chain
type strategy struct {
	source answer.Source
	run    func(ctx context.Context) (model.AnswerRecord, bool)
}

func (p *Pipeline) legacyChain(query string, searchLeg *raceLeg) []strategy {
	search := func(path string, source answer.Source) strategy {
		return strategy{source: source, run: func(ctx context.Context) (model.AnswerRecord, bool) {
			body, ok := p.graph.Search(ctx, path, query)
			if !ok {
				return model.AnswerRecord{}, false
			}
			return p.normalizer.Extract(source, query, body)
		}}
	}

	first := search(graph.SearchPath, answer.Search)
	if searchLeg != nil && searchLeg.body != nil {
		body := searchLeg.body
		first.run = func(ctx context.Context) (model.AnswerRecord, bool) {
			return p.normalizer.Extract(answer.Search, query, body)
		}
	}

	return []strategy{
		first,
		search(graph.AssetsSearchPath, answer.AssetsSearch),
		search(graph.GraphSearchPath, answer.GraphSearch),
		{source: answer.GraphQuery, run: func(ctx context.Context) (model.AnswerRecord, bool) {
			body, ok := p.graph.SPARQL(ctx, graph.AnswerQuery(query))
			if !ok {
				return model.AnswerRecord{}, false
			}
			return p.normalizer.Extract(answer.GraphQuery, query, body)
		}},
		{source: answer.Generated, run: func(ctx context.Context) (model.AnswerRecord, bool) {
			return p.generate(ctx, query)
		}},
	}
}

func (p *Pipeline) generate(ctx context.Context, query string) (model.AnswerRecord, bool) {
	if p.generator == nil {
		return model.AnswerRecord{}, false
	}
	rec, err := p.generator.Generate(ctx, llm.AnswerPrompt(query), llm.AnswerSchema)
	if err != nil {
		p.logger.Debug("generative fallback failed", zap.Error(err))
		return model.AnswerRecord{}, false
	}
	return answer.FromGenerated(answer.GeneratedAnswer{
		Title:       rec["title"],
		Explanation: rec["explanation"],
		SourceHash:  rec["sourceHash"],
	})
}
