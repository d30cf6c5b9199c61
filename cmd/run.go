package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hrtools/hr-matcher/internal/ai"
	"github.com/hrtools/hr-matcher/internal/ai/gemini"
	"github.com/hrtools/hr-matcher/internal/embedding"
	"github.com/hrtools/hr-matcher/internal/evaluators"
	"github.com/hrtools/hr-matcher/internal/logger"
	"github.com/hrtools/hr-matcher/internal/matching"
	"github.com/hrtools/hr-matcher/internal/panel"
	"github.com/hrtools/hr-matcher/internal/rerank"
	"github.com/hrtools/hr-matcher/internal/screening"
	"github.com/hrtools/hr-matcher/internal/secrets"
	"github.com/hrtools/hr-matcher/internal/skills"
	"github.com/hrtools/hr-matcher/internal/store"
	"github.com/hrtools/hr-matcher/internal/vectorstore"
)

const (
	PromptShowReport = "Show ranked report"
	PromptDumpReport = "Dump report to file"
	PromptExit       = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Matching finished. What next?",
	Items: []string{PromptShowReport, PromptDumpReport, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load data, index it and match candidates to every vacancy",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-aprove", "y", false, "print the report and exit without the interactive prompt")
	runCmd.Flags().Bool("no-ai", false, "force heuristic-only matching even when ai is configured")
	runCmd.Flags().String("vacancies", "", "path to a JSON file with vacancies")
	runCmd.Flags().String("candidates", "", "path to a JSON file with candidates")

	viper.BindPFlag("vacancies", runCmd.Flags().Lookup("vacancies"))
	viper.BindPFlag("candidates", runCmd.Flags().Lookup("candidates"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hr-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}
	if config.Vacancies == "" || config.Candidates == "" {
		logger.Fatal("vacancies and candidates files are required",
			zap.String("hint", "set the 'vacancies' and 'candidates' keys or flags"),
		)
	}

	svc, cleanup, err := buildService(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("building the matching pipeline", zap.Error(err))
	}
	defer cleanup()

	if err := loadData(ctx, svc, config, logger); err != nil {
		logger.Fatal("loading data", zap.Error(err))
	}

	entries := svc.MatchAll(ctx)
	rows := matching.RankRows(entries)

	logger.Info("matching finished",
		zap.Int("vacancies", len(entries)),
		zap.Int("ranked_matches", len(rows)),
	)

	if cmd.Flag("auto-aprove").Value.String() == "true" {
		printReport(rows)
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, entries, rows, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, entries []matching.BulkEntry, rows []matching.RankRow, logger *zap.Logger) error {
	switch action {
	case PromptShowReport:
		printReport(rows)
		return nil
	case PromptDumpReport:
		filename, err := dumpReport(entries)
		if err != nil {
			return fmt.Errorf("dump report to file: %w", err)
		}
		logger.Info("dumped report to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// buildService wires every pipeline component from the config. The returned
// cleanup closes the vector store connection.
func buildService(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (*matching.Service, func(), error) {
	ollamaCfg := config.Ollama
	if ollamaCfg == nil {
		ollamaCfg = &OllamaConfig{}
	}

	embedder, err := embedding.NewOllama(ollamaCfg.URL, ollamaCfg.Model, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("building embedder: %w", err)
	}

	qdrantCfg := vectorstore.QdrantConfig{}
	if config.Qdrant != nil {
		qdrantCfg = vectorstore.QdrantConfig{
			Host:       config.Qdrant.Host,
			Port:       config.Qdrant.Port,
			Prefix:     config.Qdrant.Prefix,
			VectorSize: config.Qdrant.VectorSize,
		}
	}

	index, err := vectorstore.NewQdrant(ctx, qdrantCfg, embedder, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("building vector index: %w", err)
	}
	cleanup := func() {
		if err := index.Close(); err != nil {
			logger.Warn("closing vector index", zap.Error(err))
		}
	}

	screener := screening.NewEngine(skills.NewEngine(embedder, logger), logger)

	var reranker *rerank.Reranker
	if config.Reranker != nil && config.Reranker.Enabled {
		reranker = rerank.New(rerank.NewClient(config.Reranker.URL), logger)
	}

	opts := matching.Options{}
	if config.Matching != nil {
		opts.TopK = config.Matching.TopK
		opts.AIAnalysisLimit = config.Matching.AIAnalysisLimit
		opts.MinScreeningScore = config.Matching.MinScreeningScore
		opts.Sequential = config.Matching.Sequential
	}

	// One limiter for the whole process: evaluators, panel summaries and
	// pairwise assessments all draw from the same model quota.
	var pacer panel.Pacer
	if config.Matching != nil && config.Matching.PaceInterval > 0 {
		pacer = rate.NewLimiter(rate.Every(config.Matching.PaceInterval), 1)
	}

	var coordinator *panel.Coordinator
	var generator ai.Generator
	noAI := cmd.Flag("no-ai").Value.String() == "true"
	if !noAI && config.AI != nil && config.AI.Enabled {
		generator, err = newGenerator(ctx, config.AI, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("building ai generator: %w", err)
		}

		coordinator = panel.New(evaluators.Roster(generator, logger), generator, pacer, logger)
		opts.UseAI = true
	}

	svc := matching.NewService(store.New(), index, screener, reranker, coordinator, generator, pacer, logger, opts)
	return svc, cleanup, nil
}

func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, logger)
}

func printReport(rows []matching.RankRow) {
	if len(rows) == 0 {
		fmt.Println("no matches found")
		return
	}

	current := ""
	for _, row := range rows {
		if row.VacancyTitle != current {
			current = row.VacancyTitle
			fmt.Printf("\n%s\n", current)
		}
		fmt.Printf("  %d. %s (%.2f)\n", row.Rank, row.CandidateName, row.Score)
	}
}

func dumpReport(entries []matching.BulkEntry) (string, error) {
	file, err := os.CreateTemp("", app+"-report-*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(entries); err != nil {
		return "", err
	}

	return file.Name(), nil
}
