// Command scholarsearchd runs the scholarsearch HTTP service: it wires
// config, logging, the health/metrics server, the genkit-backed LLM, the
// backend adapter registry, and the pipeline orchestrator behind the
// /v1/analyze endpoint. Grounded on evalaf/cmd/evalaf/main.go's rootCmd
// shape, adapted from a batch-run CLI to a long-running service shell.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/firebase/genkit/go/genkit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antflydb/scholarsearch/backend"
	"github.com/antflydb/scholarsearch/citation"
	"github.com/antflydb/scholarsearch/config"
	"github.com/antflydb/scholarsearch/fetch"
	"github.com/antflydb/scholarsearch/healthz"
	"github.com/antflydb/scholarsearch/httpapi"
	"github.com/antflydb/scholarsearch/llm"
	"github.com/antflydb/scholarsearch/logging"
	"github.com/antflydb/scholarsearch/pipeline"
)

const defaultLLMModel = "googleai/gemini-2.5-flash"

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "scholarsearchd",
	Short:   "scholarsearchd serves the scholarsearch analyze_request API",
	Version: "0.1.0",
	RunE:    runServer,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "scholarsearch.yaml", "Path to configuration file")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	secrets, err := config.LoadSecrets(cfg)
	if err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}

	log := logging.NewLogger(&cfg.Logging)
	defer log.Sync() //nolint:errcheck

	model := secrets.DefaultLLMModel
	if model == "" {
		model = defaultLLMModel
	}

	ctx := context.Background()
	g := genkit.Init(ctx)
	structuredLLM := llm.NewGenkitLLM(g, model, log, 4)

	fetcher := fetch.NewHTTPFetcher(fetch.DefaultSecurityConfig, log)
	registry := buildRegistry(cfg, secrets, log, fetcher)
	resolver := citation.NewDefaultResolver()

	metrics := healthz.NewMetrics(prometheus.DefaultRegisterer)
	orchestrator := pipeline.NewOrchestrator(structuredLLM, resolver, registry, log).WithMetrics(metrics)

	srv := healthz.New(log, nil)
	srv.Handle("/v1/analyze", httpapi.NewHandlerWithDefaults(orchestrator, cfg.Search, log))
	srv.Start(cfg.Port)

	log.Info("scholarsearchd started", zap.Int("port", cfg.Port), zap.Strings("platforms", cfg.Search.Platforms))
	select {}
}

// buildRegistry constructs one Adapter per platform enabled in
// cfg.Search.Platforms, skipping any backend whose required secret is
// absent (LoadSecrets already rejected that combination at startup, so
// this only ever skips an explicitly-disabled backend).
func buildRegistry(cfg *config.Config, secrets *config.Secrets, log *zap.Logger, fetcher fetch.FullTextFetcher) backend.Registry {
	enabled := make(map[string]bool, len(cfg.Search.Platforms))
	for _, p := range cfg.Search.Platforms {
		enabled[p] = true
	}

	registry := backend.Registry{}
	if enabled[backend.OpenAlex] {
		registry[backend.OpenAlex] = backend.NewOpenAlexAdapter(log, fetcher)
	}
	if enabled[backend.ArXiv] {
		registry[backend.ArXiv] = backend.NewArXivAdapter(log, fetcher)
	}
	if enabled[backend.Scopus] && secrets.ScopusAPIKey != "" {
		registry[backend.Scopus] = backend.NewScopusAdapter(secrets.ScopusAPIKey, log, fetcher)
	}
	if enabled[backend.Core] && secrets.CoreAPIKey != "" {
		registry[backend.Core] = backend.NewCoreAdapter(secrets.CoreAPIKey, log, fetcher)
	}
	if enabled[backend.SemanticScholar] {
		registry[backend.SemanticScholar] = backend.NewSemanticScholarAdapter(secrets.SemanticScholarKey, log, fetcher)
	}
	return registry
}
