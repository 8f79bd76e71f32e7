package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"foresight/internal/agent"
	"foresight/internal/config"
	"foresight/internal/debate"
	"foresight/internal/export"
	"foresight/internal/forecast"
	"foresight/internal/llm"
	"foresight/internal/market"
	"foresight/internal/render"
	"foresight/internal/research"
	"foresight/internal/store"
	"foresight/internal/voice"
)

var (
	cfgPath   string
	verbose   bool
	appConfig *config.Config
	logger    *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "foresight",
	Short: "Multi-agent forecasting debates on prediction markets",
	Long: `foresight runs a panel of LLM forecasters against a prediction-market
event. Each agent locks an independent forecast, then defends it in a
moderated debate across fixed rounds.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if verbose {
			logger, err = zap.NewDevelopment()
			if err != nil {
				return err
			}
		} else {
			logger = zap.NewNop()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	runRounds  int
	runNoVoice bool
	runExport  string
)

var runCmd = &cobra.Command{
	Use:   "run <event-id>",
	Short: "Run a forecasting debate on a market event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runDebate(ctx, args[0])
	},
}

var (
	eventSearch string
	eventLimit  int
)

var eventCmd = &cobra.Command{
	Use:   "event [event-id]",
	Short: "Show a market event, or list trending events with --search",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := market.New(logger)

		if len(args) == 0 {
			events, err := client.Trending(ctx, eventSearch, eventLimit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMARKET\tLIQUIDITY\tTITLE")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%.0f%%\t%.0f\t%s\n", e.EventID, e.MarketProbability*100, e.Liquidity, e.Title)
			}
			return w.Flush()
		}

		event, err := client.GetEvent(ctx, args[0])
		if err != nil {
			return err
		}
		render.NewConsole(os.Stdout).EventHeader(event)
		if event.ResolutionRules != "" {
			fmt.Println("Resolution rules:")
			fmt.Println(event.ResolutionRules)
		}
		return nil
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show the configured panel and detected providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(appConfig.Agents) == 0 {
			fmt.Println("No agents configured. Set GROQ_API_KEY, OPENAI_API_KEY, XAI_API_KEY or GEMINI_API_KEY, or write a config file.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AGENT\tARCHETYPE\tADAPTER")
		for _, ac := range appConfig.Agents {
			client := newAdapter(ac)
			fmt.Fprintf(w, "%s\t%s\t%s\n", ac.Name, ac.Archetype, client.Describe())
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	runCmd.Flags().IntVar(&runRounds, "rounds", 0, "discussion rounds (default from config)")
	runCmd.Flags().BoolVar(&runNoVoice, "no-voice", false, "disable narration")
	runCmd.Flags().StringVar(&runExport, "export", "", "export a markdown transcript under this directory")

	eventCmd.Flags().StringVar(&eventSearch, "search", "", "search term for trending events")
	eventCmd.Flags().IntVar(&eventLimit, "limit", 10, "max events to list")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(providersCmd)
}

func newAdapter(ac config.AgentConfig) *llm.Client {
	opts := []llm.Option{llm.WithLogger(logger)}
	if ac.Model != "" {
		opts = append(opts, llm.WithModel(ac.Model))
	}
	if appConfig.Debate.RequestsPerMinute > 0 {
		opts = append(opts, llm.WithRequestsPerMinute(appConfig.Debate.RequestsPerMinute))
	}
	return llm.New(ac.Credential, opts...)
}

func runDebate(ctx context.Context, identifier string) error {
	if len(appConfig.Agents) < 2 {
		return fmt.Errorf("a debate needs at least 2 configured agents, have %d", len(appConfig.Agents))
	}

	event, err := market.New(logger).GetEvent(ctx, identifier)
	if err != nil {
		return fmt.Errorf("fetch event: %w", err)
	}

	console := render.NewConsole(os.Stdout)
	console.EventHeader(event)

	researcher := research.New(appConfig.Research.TavilyKey, logger)
	if !researcher.Configured() {
		fmt.Println(render.DimStyle.Render("no research key configured, agents argue from priors"))
	}

	// Forecast phase: each agent locks a position before hearing the others.
	policy := debate.DefaultRetryPolicy()
	var participants []debate.Participant
	for _, ac := range appConfig.Agents {
		a := agent.New(ac.Name, ac.Archetype, newAdapter(ac),
			agent.WithResearcher(researcher), agent.WithLogger(logger))
		if !a.Active() {
			fmt.Println(render.SkipStyle.Render(ac.Name + " has no usable credential, sitting out"))
			continue
		}

		var f *forecast.Forecast
		_, err := policy.Do(ctx, func() (string, error) {
			var ferr error
			f, ferr = a.ProduceForecast(ctx, event)
			return "", ferr
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Println(render.SkipStyle.Render(fmt.Sprintf("%s failed to lock a forecast: %v", ac.Name, err)))
			continue
		}
		participants = append(participants, debate.Participant{Agent: a, Forecast: f})
	}

	rounds := appConfig.Debate.Rounds
	if runRounds > 0 {
		rounds = runRounds
	}

	engineOpts := []debate.EngineOption{
		debate.WithRounds(rounds),
		debate.WithRetryPolicy(policy),
		debate.WithObserver(console),
		debate.WithLogger(logger),
	}

	var narrator *voice.Client
	if appConfig.Voice.Enabled && !runNoVoice {
		narrator = voice.NewClient(appConfig.Voice.Endpoint, true, logger)
		defer narrator.Close()
		engineOpts = append(engineOpts, debate.WithObserver(narrationObserver{narrator}))
	}

	if appConfig.Moderator.Mode == "llm" {
		moderator := debate.NewLLMModerator(llm.New(appConfig.Moderator.Credential, llm.WithLogger(logger)), logger)
		engineOpts = append(engineOpts, debate.WithModerator(moderator))
	}

	result, err := debate.NewEngine(engineOpts...).Run(ctx, event, participants)
	if err != nil {
		return err
	}

	if err := persistResult(result, rounds); err != nil {
		fmt.Println(render.SkipStyle.Render("could not persist run: " + err.Error()))
	}

	if runExport != "" {
		path, err := export.WriteResult(result, event, runExport)
		if err != nil {
			return fmt.Errorf("export transcript: %w", err)
		}
		fmt.Println(render.DimStyle.Render("transcript written to " + path))
	}

	return nil
}

func persistResult(result *debate.Result, rounds int) error {
	var s *store.Store
	var err error
	if appConfig.Storage.Path != "" {
		s, err = store.OpenAt(appConfig.Storage.Path)
	} else {
		s, err = store.Open()
	}
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveResult(result, rounds)
}

// narrationObserver forwards spoken lines to the TTS client. Forecast locks
// and skips stay on screen only.
type narrationObserver struct {
	narrator *voice.Client
}

func (n narrationObserver) ForecastReady(string, *forecast.Forecast) {}

func (n narrationObserver) ModeratorSpoke(text string) {
	n.narrator.Say("Moderator", text)
}

func (n narrationObserver) TurnSpoken(t debate.Turn) {
	n.narrator.Say(t.Speaker, t.Text)
}

func (n narrationObserver) TurnSkipped(debate.Skip) {}

func (n narrationObserver) DebateConcluded(*debate.Result) {}
