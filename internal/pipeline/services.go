package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ppiankov/trustbrowser/internal/answer"
	"github.com/ppiankov/trustbrowser/internal/chain"
	"github.com/ppiankov/trustbrowser/internal/endpoint"
	"github.com/ppiankov/trustbrowser/internal/graph"
	"github.com/ppiankov/trustbrowser/internal/llm"
	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/signals"
	"github.com/ppiankov/trustbrowser/internal/transport"
)

// Services bundles the wired components built from one configuration
type Services struct {
	Pipeline  *Pipeline
	Graph     *graph.Client
	Transport *transport.Client
	Assistant *llm.Assistant
	Resolver  *endpoint.Resolver

	reader *chain.EthReader
}

// NewServices wires every component from cfg. Optional collaborators that
// fail to initialize are logged and left disabled.
func NewServices(ctx context.Context, cfg *model.Config, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolver := endpoint.NewResolver(cfg)
	tc := transport.NewClient(cfg, resolver, logger.Named("transport"))
	explorers := answer.Explorers{
		Current: resolver.CurrentExplorerBase(),
		Legacy:  resolver.LegacyExplorerBase(),
	}
	gc := graph.NewClient(tc, explorers, cfg.PNS.APIURL, logger.Named("graph"))

	var provider llm.Provider
	p, err := llm.NewProvider(llm.ConfigFromModel(cfg))
	switch {
	case errors.Is(err, llm.ErrNoProvider):
		logger.Debug("LLM disabled")
	case err != nil:
		logger.Warn("failed to initialize LLM provider", zap.Error(err))
	default:
		provider = p
	}

	var generator llm.Generator
	if provider != nil {
		generator = llm.NewGenerator(provider)
	}

	s := &Services{
		Graph:     gc,
		Transport: tc,
		Assistant: llm.NewAssistant(provider, logger.Named("llm")),
		Resolver:  resolver,
	}

	var reader chain.Reader
	if cfg.Chain.RPCURL != "" {
		r, err := chain.Dial(ctx, cfg.Chain.RPCURL)
		if err != nil {
			logger.Warn("chain reader unavailable", zap.String("rpc", cfg.Chain.RPCURL), zap.Error(err))
		} else {
			s.reader = r
			reader = r
		}
	}

	agg := signals.NewAggregator(cfg, gc, reader, signals.WithLogger(logger.Named("signals")))
	s.Pipeline = New(Deps{
		Graph:     gc,
		Explorers: explorers,
		Generator: generator,
		Signals:   agg,
		Logger:    logger.Named("pipeline"),
	})
	return s
}

// Close releases the chain connection
func (s *Services) Close() {
	if s.reader != nil {
		s.reader.Close()
	}
}
