package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mindweave/mindweave/ai"
	"github.com/mindweave/mindweave/graph"
	"github.com/mindweave/mindweave/ingest"
	"github.com/mindweave/mindweave/internal/profile"
	"github.com/mindweave/mindweave/journey"
	"github.com/mindweave/mindweave/render"
	"github.com/mindweave/mindweave/retrieval"
	"github.com/mindweave/mindweave/stats"
	"github.com/mindweave/mindweave/synth"
)

var version = "0.1.0-dev"

func main() {
	var prof profile.Profile

	rootCmd := &cobra.Command{
		Use:   "mindweave",
		Short: "Build and query cognitive-distortion graphs from journal data",
		Long: `Mindweave turns longitudinal journal data into weighted distortion
graphs and retrieves evidence-based intervention recommendations from
them: similar historical cases, keystone distortions, and likely
cascade paths.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			prof = profile.Profile{
				Mode:    viper.GetString("mode"),
				Data:    viper.GetString("data"),
				Version: version,
			}
			prof.FromEnv()
			if err := prof.Validate(); err != nil {
				return err
			}

			level := slog.LevelInfo
			if prof.IsDev() {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	rootCmd.PersistentFlags().String("mode", "dev", `mode of the run, can be "prod", "dev", or "demo"`)
	rootCmd.PersistentFlags().String("data", ".", "data directory")
	_ = viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode"))
	_ = viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data"))
	viper.SetEnvPrefix("mindweave")
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		newIngestCmd(&prof),
		newGenerateCmd(&prof),
		newInterventionsCmd(&prof),
		newBuildCmd(&prof),
		newRetrieveCmd(&prof),
		newStatsCmd(&prof),
		newRenderCmd(&prof),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func newChatService(prof *profile.Profile) (ai.ChatService, error) {
	if !prof.IsAIEnabled() {
		return nil, fmt.Errorf("AI is not configured; set MINDWEAVE_AI_ENABLED=true and MINDWEAVE_AI_API_KEY")
	}
	return ai.NewProvider(&ai.Config{
		BaseURL:    prof.AIBaseURL,
		APIKey:     prof.AIAPIKey,
		Model:      prof.AIModel,
		MaxRetries: prof.AIMaxRetry,
	})
}

func newIngestCmd(prof *profile.Profile) *cobra.Command {
	var (
		input      string
		output     string
		sampleSize int
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Label raw journal statements with cognitive distortions",
		RunE: func(cmd *cobra.Command, args []string) error {
			chat, err := newChatService(prof)
			if err != nil {
				return err
			}

			config := ingest.DefaultConfig()
			config.SampleSize = sampleSize
			config.Concurrency = workers

			labeler := ingest.NewLabeler(chat, config)
			statements, err := labeler.ProcessFile(cmd.Context(), input)
			if err != nil {
				return err
			}
			return ingest.SaveBaseStatements(dataPath(prof, output), statements)
		},
	}

	cmd.Flags().StringVar(&input, "input", "mental_health.csv", "raw statements CSV")
	cmd.Flags().StringVar(&output, "output", "base_statements.json", "labeled output file")
	cmd.Flags().IntVar(&sampleSize, "sample", 500, "statements to sample, 0 for all")
	cmd.Flags().IntVar(&workers, "workers", 2, "concurrent labeling workers")
	return cmd
}

func newGenerateCmd(prof *profile.Profile) *cobra.Command {
	var (
		input      string
		output     string
		checkpoint string
		users      int
		perWeek    int
		workers    int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic longitudinal cohort",
		RunE: func(cmd *cobra.Command, args []string) error {
			chat, err := newChatService(prof)
			if err != nil {
				return err
			}

			base, err := ingest.LoadBaseStatements(dataPath(prof, input))
			if err != nil {
				return err
			}

			config := synth.DefaultGeneratorConfig()
			config.NumUsers = users
			config.EntriesPerWeek = perWeek
			config.Concurrency = workers
			config.Seed = seed
			if checkpoint != "" {
				config.CheckpointPath = dataPath(prof, checkpoint)
			}

			gen := synth.NewGenerator(chat, config)
			start := time.Now()
			journeys, err := gen.GenerateCohort(cmd.Context(), base)
			if err != nil {
				return err
			}
			slog.Info("generation finished", "users", len(journeys), "elapsed", time.Since(start).Round(time.Second))
			return journey.SaveJourneys(dataPath(prof, output), journeys)
		},
	}

	cmd.Flags().StringVar(&input, "input", "base_statements.json", "labeled base statements")
	cmd.Flags().StringVar(&output, "output", "journeys.json", "cohort output file")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "save finished journeys here as generation progresses")
	cmd.Flags().IntVar(&users, "users", 10, "users to generate")
	cmd.Flags().IntVar(&perWeek, "entries-per-week", 2, "journal entries per week")
	cmd.Flags().IntVar(&workers, "workers", 2, "concurrent generation workers")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	return cmd
}

func newInterventionsCmd(prof *profile.Profile) *cobra.Command {
	var (
		input  string
		output string
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "interventions",
		Short: "Assign interventions to a generated cohort",
		RunE: func(cmd *cobra.Command, args []string) error {
			journeys, err := journey.LoadJourneys(dataPath(prof, input))
			if err != nil {
				return err
			}
			synth.AssignInterventions(journeys, seed)
			if output == "" {
				output = input
			}
			return journey.SaveJourneys(dataPath(prof, output), journeys)
		},
	}

	cmd.Flags().StringVar(&input, "input", "journeys.json", "cohort file")
	cmd.Flags().StringVar(&output, "output", "", "output file, defaults to input")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	return cmd
}

func newBuildCmd(prof *profile.Profile) *cobra.Command {
	var (
		input  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build personal and global distortion graphs from a cohort",
		RunE: func(cmd *cobra.Command, args []string) error {
			journeys, err := journey.LoadJourneys(dataPath(prof, input))
			if err != nil {
				return err
			}

			for _, j := range journeys {
				if err := j.Validate(); err != nil {
					return fmt.Errorf("invalid journey %s: %w", j.UserID, err)
				}
			}

			builder := graph.NewBuilder()
			personal, global := builder.ProcessAll(journeys)
			export := graph.NewExport(personal, global)
			if err := export.WriteFile(dataPath(prof, output)); err != nil {
				return err
			}
			slog.Info("graphs exported",
				"users", len(personal),
				"global_nodes", global.NodeCount(),
				"global_edges", global.EdgeCount(),
				"path", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "journeys.json", "cohort file")
	cmd.Flags().StringVar(&output, "output", "graphs.json", "graph export file")
	return cmd
}

func newRetrieveCmd(prof *profile.Profile) *cobra.Command {
	var (
		input       string
		distortions []string
		topK        int
	)

	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Retrieve intervention recommendations for a distortion pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseDistortions(distortions)
			if err != nil {
				return err
			}

			engine, err := retrieval.NewEngineFromFile(dataPath(prof, input))
			if err != nil {
				return err
			}

			rec := engine.RetrieveInterventions(query, topK)
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(rec)
		},
	}

	cmd.Flags().StringVar(&input, "input", "graphs.json", "graph export file")
	cmd.Flags().StringSliceVar(&distortions, "distortions", nil, "query distortion types (comma-separated)")
	cmd.Flags().IntVar(&topK, "top-k", 5, "similar cases to return")
	_ = cmd.MarkFlagRequired("distortions")
	return cmd
}

func newStatsCmd(prof *profile.Profile) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a cohort report",
		RunE: func(cmd *cobra.Command, args []string) error {
			journeys, err := journey.LoadJourneys(dataPath(prof, input))
			if err != nil {
				return err
			}
			fmt.Print(stats.Collect(journeys).Summary())
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "journeys.json", "cohort file")
	return cmd
}

func newRenderCmd(prof *profile.Profile) *cobra.Command {
	var (
		input  string
		output string
		user   string
		width  int
		height int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a distortion graph as a PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			export, err := graph.ReadExportFile(dataPath(prof, input))
			if err != nil {
				return err
			}

			opts := render.Options{Width: width, Height: height}
			if user == "" {
				global, err := export.DecodeGlobalGraph()
				if err != nil {
					return err
				}
				opts.Title = "Global intervention graph"
				return render.WriteGraphPNG(global.DiGraph, dataPath(prof, output), opts)
			}

			personal, err := export.DecodePersonalGraphs()
			if err != nil {
				return err
			}
			pg, ok := personal[user]
			if !ok {
				return fmt.Errorf("no personal graph for user %s", user)
			}
			opts.Title = "Personal graph: " + user
			return render.WriteGraphPNG(pg.DiGraph, dataPath(prof, output), opts)
		},
	}

	cmd.Flags().StringVar(&input, "input", "graphs.json", "graph export file")
	cmd.Flags().StringVar(&output, "output", "graph.png", "PNG output file")
	cmd.Flags().StringVar(&user, "user", "", "render this user's personal graph instead of the global one")
	cmd.Flags().IntVar(&width, "width", 1200, "image width")
	cmd.Flags().IntVar(&height, "height", 900, "image height")
	return cmd
}

// parseDistortions validates the query vocabulary up front so a typo fails
// fast instead of returning an empty recommendation.
func parseDistortions(raw []string) ([]journey.DistortionType, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one distortion is required")
	}
	query := make([]journey.DistortionType, 0, len(raw))
	for _, s := range raw {
		t := journey.DistortionType(strings.TrimSpace(strings.ToLower(s)))
		if !journey.IsValidDistortion(t) {
			return nil, fmt.Errorf("unknown distortion type %q", s)
		}
		query = append(query, t)
	}
	return query, nil
}

// dataPath resolves a file name against the profile data directory. Absolute
// paths pass through.
func dataPath(prof *profile.Profile, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(prof.Data, name)
}
