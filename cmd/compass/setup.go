package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"compass/internal/agent"
	"compass/internal/chunking"
	"compass/internal/config"
	"compass/internal/knowledge"
	"compass/internal/llm"
	"compass/internal/logging"
	"compass/internal/retry"
	"compass/internal/workflow"
)

// newModelClient builds the provider client from config, with retries
// wrapped around it when configured.
func newModelClient(cfg *config.Config) (llm.Client, error) {
	client, err := llm.NewClient(llm.ProviderKind(cfg.LLM.Provider), cfg.LLM.Model, llm.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Deployment:      cfg.LLM.Deployment,
		APIVersion:      cfg.LLM.APIVersion,
		Timeout:         cfg.LLM.Timeout,
		ThinkingTimeout: cfg.LLM.ThinkingTimeout,
		CharsPerToken:   cfg.LLM.CharsPerToken,
	})
	if err != nil {
		return nil, err
	}
	if cfg.LLM.MaxAttempts > 1 {
		client = llm.NewRetryClient(client, retry.Config{
			MaxAttempts: cfg.LLM.MaxAttempts - 1,
			BaseDelay:   time.Second,
		})
	}
	return client, nil
}

// newKnowledgeService builds the retrieval service. Without an embedding API
// key the deterministic local embedder keeps retrieval fully offline.
func newKnowledgeService(cfg *config.Config, logger logging.Logger) (*knowledge.Service, error) {
	var embedder knowledge.Embedder
	if cfg.Knowledge.EmbeddingAPIKey != "" {
		var err error
		embedder, err = knowledge.NewEmbedder(knowledge.EmbedderConfig{
			Model:   cfg.Knowledge.EmbeddingModel,
			APIKey:  cfg.Knowledge.EmbeddingAPIKey,
			BaseURL: cfg.Knowledge.EmbeddingBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create embedder: %w", err)
		}
	} else {
		logger.Warn("no embedding API key configured, using local hash embedder")
		embedder = knowledge.NewHashEmbedder(0)
	}

	return knowledge.NewService(knowledge.ServiceConfig{
		BaseDir:     cfg.Knowledge.BaseDir,
		PersistPath: cfg.Knowledge.PersistPath,
		Collection:  cfg.Knowledge.Collection,
		Window: knowledge.WindowConfig{
			WindowTokens:  cfg.Knowledge.WindowTokens,
			OverlapTokens: cfg.Knowledge.OverlapTokens,
		},
		TopK:           cfg.Knowledge.TopK,
		MaturityExtras: cfg.Knowledge.MaturityExtras,
	}, embedder, logger), nil
}

// newOrchestrator wires the full pipeline from config.
func newOrchestrator(cfg *config.Config, logger logging.Logger) (*workflow.Orchestrator, error) {
	client, err := newModelClient(cfg)
	if err != nil {
		return nil, err
	}

	service, err := newKnowledgeService(cfg, logger)
	if err != nil {
		return nil, err
	}

	frameworks, err := agent.LoadFrameworks(cfg.Workflow.FrameworksFile)
	if err != nil {
		return nil, err
	}

	engine := chunking.NewEngine(client, chunking.EngineConfig{
		FanOut: cfg.Chunking.FanOut,
	}, logger)

	parser := agent.NewSurveyParser(client, logger)
	assessor := agent.NewMaturityAssessor(client, service, frameworks, cfg.Knowledge.TopK, logger)
	generator := agent.NewReportGenerator(engine, agent.GeneratorConfig{
		TokenBudget:  cfg.Chunking.TokenBudget,
		SafetyMargin: cfg.Chunking.SafetyMargin,
		MaxTokens:    cfg.Chunking.MaxTokens,
		Thinking:     cfg.LLM.Thinking,
	}, logger)
	critic := agent.NewSelfCritic(client, logger)
	formatter := agent.NewReportFormatter(cfg.Workflow.OutputDir, logger)

	metrics := workflow.NewMetrics(prometheus.DefaultRegisterer)
	return workflow.NewOrchestrator(parser, assessor, generator, critic, formatter, workflow.Options{
		EnableFormatting: cfg.Workflow.EnableFormatting,
		EnableRevision:   cfg.Workflow.EnableRevision,
		MaxRevisions:     cfg.Workflow.MaxRevisions,
		QualityThreshold: cfg.Workflow.QualityThreshold,
	}, metrics, logger), nil
}
