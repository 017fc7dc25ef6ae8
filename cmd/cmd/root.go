package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"insightsuite/internal/config"
	"insightsuite/internal/embed"
	"insightsuite/internal/llm"
	"insightsuite/internal/logger"
	"insightsuite/internal/normalize"
	"insightsuite/internal/pipeline"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "insightsuite",
	Short: "InsightSuite analyzes customer feedback into themes and personas",
	Long: `InsightSuite runs an offline analysis pipeline over exported customer
reviews: it normalizes the raw export, scores sentiment, embeds and
clusters the reviews into themes, summarizes each theme, and
synthesizes user personas. The result is a single project artifact
in JSON.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.insightsuite.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Load .env file if it exists (for local development)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading configuration:", err)
		os.Exit(1)
	}

	if os.Getenv("INSIGHTSUITE_LOG_LEVEL") == "" {
		level := cfg.Logging.Level
		if cfg.App.Debug {
			level = "debug"
		}
		os.Setenv("INSIGHTSUITE_LOG_LEVEL", level)
	}
	logger.Init()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

var runCmd = &cobra.Command{
	Use:   "run [input-file]",
	Short: "Analyze a review export and write the project artifact",
	Long: `Run the full analysis pipeline over a CSV or JSON review export and
write a <project-id>.json artifact to the output directory.

Available formats: airbnb, playstore, ecommerce, generic

Example:
  insightsuite run exports/airbnb_rome.csv --format airbnb
  insightsuite run exports/app_reviews.csv --format playstore --name "Mobile App Q3"
  insightsuite run exports/orders.csv --no-llm --write-reviews`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inputFile := args[0]
		format, _ := cmd.Flags().GetString("format")
		projectID, _ := cmd.Flags().GetString("project")
		projectName, _ := cmd.Flags().GetString("name")
		outputDir, _ := cmd.Flags().GetString("output")
		writeReviews, _ := cmd.Flags().GetBool("write-reviews")
		seed, _ := cmd.Flags().GetInt64("seed")
		noLLM, _ := cmd.Flags().GetBool("no-llm")

		if outputDir == "" {
			outputDir = config.Get().Output.Directory
		}
		if !cmd.Flags().Changed("seed") {
			seed = config.Get().Pipeline.Seed
		}

		if err := runAnalysis(cmd.Context(), inputFile, format, projectID, projectName, outputDir, writeReviews, seed, noLLM); err != nil {
			logger.Error("Analysis failed", err)
			os.Exit(1)
		}
	},
}

func runAnalysis(ctx context.Context, inputFile, format, projectID, projectName, outputDir string, writeReviews bool, seed int64, noLLM bool) error {
	logger.Info("Starting analysis", "input_file", inputFile, "format", format)
	cfg := config.Get()

	var llmClient *llm.Client
	if noLLM || !config.HasGeminiKey() {
		fmt.Println("Running without a language model: lexical embeddings, rule-based summaries and personas.")
	} else {
		client, err := llm.NewClient(cfg.Gemini.Model)
		if err != nil {
			logger.Warn("Failed to initialize LLM client, continuing without one", "error", err)
			fmt.Printf("LLM unavailable (%s), continuing with fallbacks.\n", err)
		} else {
			llmClient = client
		}
	}

	builder := pipeline.NewBuilder().
		WithCacheDir(cfg.Cache.Directory).
		WithSeed(seed).
		WithWorkers(cfg.Pipeline.Workers).
		WithRequestBudget(cfg.Embedding.RequestsPerMinute)
	if llmClient != nil {
		builder = builder.WithLLMClient(llmClient)
	}

	p, err := builder.Build()
	if err != nil {
		return err
	}
	defer p.Close()

	result, err := p.Run(ctx, pipeline.Options{
		InputPath:    inputFile,
		Format:       normalize.Format(format),
		ProjectID:    projectID,
		ProjectName:  projectName,
		OutputDir:    outputDir,
		WriteReviews: writeReviews,
	})
	if err != nil {
		return err
	}

	printRunSummary(result)
	return nil
}

func printRunSummary(result *pipeline.RunResult) {
	stats := result.Stats
	art := result.Artifact

	fmt.Printf("\nAnalyzed %d reviews (%d rows skipped) in %s\n",
		stats.ValidReviews, stats.SkippedRows, stats.EndTime.Sub(stats.StartTime).Round(time.Millisecond))
	fmt.Printf("Themes: %d  Personas: %d  Noise reviews: %d\n",
		len(art.Clusters), len(art.Personas), stats.NoiseReviews)
	fmt.Printf("Embedding cache: %d hits, %d remote calls\n", stats.CacheHits, stats.RemoteCalls)

	if len(stats.DegradedStages) > 0 {
		fmt.Printf("Degraded stages: %s\n", strings.Join(stats.DegradedStages, ", "))
	}

	fmt.Printf("\nArtifact written: %s\n", result.ArtifactPath)
	if result.ReviewsPath != "" {
		fmt.Printf("Reviews written: %s\n", result.ReviewsPath)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("format", "f", "generic", "Input format: airbnb, playstore, ecommerce, generic")
	runCmd.Flags().String("project", "", "Project ID (generated when empty)")
	runCmd.Flags().String("name", "", "Project display name (derived from the file name when empty)")
	runCmd.Flags().StringP("output", "o", "", "Output directory for the artifact")
	runCmd.Flags().Bool("write-reviews", false, "Also write the normalized, scored reviews as JSON")
	runCmd.Flags().Int64("seed", 42, "Seed for quote sampling and the clustering fallback")
	runCmd.Flags().Bool("no-llm", false, "Skip the language model even when an API key is configured")
}

// Cache management commands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the embedding cache",
	Long:  `Inspect and clear the SQLite cache of review embeddings.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show embedding cache statistics",
	Run: func(cmd *cobra.Command, args []string) {
		cache, err := embed.OpenCache(config.Get().Cache.Directory)
		if err != nil {
			fmt.Printf("Error opening cache: %s\n", err)
			return
		}
		defer cache.Close()

		stats, err := cache.Stats()
		if err != nil {
			fmt.Printf("Error getting cache stats: %s\n", err)
			return
		}

		fmt.Println("Embedding Cache Statistics:")
		fmt.Println("===========================")
		fmt.Printf("Entries: %d\n", stats.Entries)
		fmt.Printf("Cache size: %.2f MB\n", float64(stats.SizeBytes)/(1024*1024))
		if len(stats.Models) > 0 {
			fmt.Printf("Models: %s\n", strings.Join(stats.Models, ", "))
		}
		if !stats.LastUpdated.IsZero() {
			fmt.Printf("Last updated: %s\n", stats.LastUpdated.Format("2006-01-02 15:04:05"))
		}
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the embedding cache",
	Run: func(cmd *cobra.Command, args []string) {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			fmt.Println("This will delete all cached embeddings. Use --confirm to proceed.")
			return
		}

		cache, err := embed.OpenCache(config.Get().Cache.Directory)
		if err != nil {
			fmt.Printf("Error opening cache: %s\n", err)
			return
		}
		defer cache.Close()

		if err := cache.Clear(); err != nil {
			fmt.Printf("Error clearing cache: %s\n", err)
			return
		}

		fmt.Println("Cache cleared successfully")
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the environment and configuration",
	Long:  `Report configuration problems and whether the language model and embedding cache are usable.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()

		fmt.Println("Configuration:")
		fmt.Printf("  Model: %s\n", cfg.Gemini.Model)
		fmt.Printf("  Embedding model: %s\n", cfg.Embedding.Model)
		fmt.Printf("  Cache directory: %s\n", cfg.Cache.Directory)
		fmt.Printf("  Output directory: %s\n", cfg.Output.Directory)
		fmt.Println()

		issues := config.Issues()

		cache, err := embed.OpenCache(cfg.Cache.Directory)
		if err != nil {
			issues = append(issues, fmt.Sprintf("Embedding cache unusable: %s", err))
		} else {
			cache.Close()
		}

		if len(issues) == 0 {
			fmt.Println("No problems found.")
			return
		}
		for _, issue := range issues {
			fmt.Printf("  - %s\n", issue)
		}
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(checkCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheClearCmd.Flags().Bool("confirm", false, "Confirm cache deletion")
}
