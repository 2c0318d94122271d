// Command scholarsearch runs one analyze_request call from the command
// line and prints the resulting RequestAnalysis as JSON, without
// standing up the HTTP service. Grounded on evalaf/cmd/evalaf/run.go's
// config-in/flags-override/single-shot-execute shape.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/firebase/genkit/go/genkit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antflydb/scholarsearch/backend"
	"github.com/antflydb/scholarsearch/citation"
	"github.com/antflydb/scholarsearch/config"
	"github.com/antflydb/scholarsearch/fetch"
	"github.com/antflydb/scholarsearch/llm"
	"github.com/antflydb/scholarsearch/logging"
	"github.com/antflydb/scholarsearch/pipeline"
)

const defaultLLMModel = "googleai/gemini-2.5-flash"

var (
	configPath        string
	query             string
	rankingGuidance   string
	numPapersToReturn int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "scholarsearch",
	Short:   "scholarsearch runs one analyze_request call and prints the result as JSON",
	Version: "0.1.0",
	RunE:    runAnalyze,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "scholarsearch.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&query, "query", "q", "", "Research query to analyze (required)")
	rootCmd.Flags().StringVar(&rankingGuidance, "ranking-guidance", "", "Free-text guidance for the ranker")
	rootCmd.Flags().IntVar(&numPapersToReturn, "num-papers", 0, "Top-N survivors to return (0 uses the pipeline default of 2)")
	_ = rootCmd.MarkFlagRequired("query")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	orchestrator := pipeline.NewOrchestrator(structuredLLM, resolver, registry, log)

	req := pipeline.Request{
		Query:             []string{query},
		RankingGuidance:   rankingGuidance,
		NumPapersToReturn: numPapersToReturn,
		Platforms:         cfg.Search.Platforms,
		PapersPerQuery:    cfg.Search.PapersPerQuery,
		NumQueries:        cfg.Search.NumQueries,
		MinYear:           cfg.Search.MinYear,
		MaxYear:           cfg.Search.MaxYear,
	}

	analysis := orchestrator.AnalyzeRequest(ctx, req)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(analysis.View())
}

// buildRegistry constructs one Adapter per platform enabled in
// cfg.Search.Platforms, mirroring cmd/scholarsearchd's registry wiring
// for the single-shot CLI path.
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
