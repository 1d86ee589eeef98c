package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/lanote/internal"
)

// Runner executes the subcommands. It is created after configuration was
// loaded and closed when the command returns.
type Runner interface {
	Add(ctx context.Context, args []string) error
	Parse(ctx context.Context, args []string) error
	Sync(ctx context.Context, source string) error
	List(ctx context.Context) error
	Enrich(ctx context.Context, ref string) error
	Play(ctx context.Context, ref string) error
	Record(ctx context.Context, ref string) error
	Review(ctx context.Context, ref string) error
	Delete(ctx context.Context, ref string) error
	Close() error
}

// RunnerFactory builds the Runner for cmd.
type RunnerFactory func(cmd *cobra.Command) (Runner, error)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, newRunner RunnerFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lanote",
		Short: "Korean and Japanese vocabulary notes",
		Long: `lanote turns study notes into vocabulary flashcards and enriches each
card with an explanation, an illustration, pronunciation audio, a sample
dialogue and grammar forms generated by Gemini or OpenAI.

Examples:
  lanote add 고양이 cat --category Animals   # Add one card
  lanote add --batch words.txt               # Import "term = definition | category" lines
  lanote parse "apple, to eat, 고양이"        # Extract vocabulary from free notes
  lanote sync docs.google.com/document/d/ID  # Pull new words from a published document
  lanote enrich 고양이                        # Generate the missing details
  lanote play 고양이                          # Listen to the pronunciation
  lanote record 고양이                        # Record and replay your own attempt
  lanote delete 고양이                        # Remove a card`,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	setupFlags(rootCmd, flags)

	run := func(fn func(r Runner, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(cmd)
			if err != nil {
				return err
			}
			defer r.Close()
			return fn(r, cmd, args)
		}
	}

	addCmd := &cobra.Command{
		Use:   "add [term] [definition]",
		Short: "Add a card, or import a batch file",
		Args: func(cmd *cobra.Command, args []string) error {
			if flags.BatchFile != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: run(func(r Runner, cmd *cobra.Command, args []string) error {
			return r.Add(cmd.Context(), args)
		}),
	}
	addCmd.Flags().StringVarP(&flags.Category, "category", "c", "", "Card category")
	addCmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Import cards from file (term = definition | category per line)")

	parseCmd := &cobra.Command{
		Use:   "parse <text|->",
		Short: "Extract vocabulary from free-form notes ('-' reads stdin)",
		Args:  cobra.MinimumNArgs(1),
		RunE: run(func(r Runner, cmd *cobra.Command, args []string) error {
			return r.Parse(cmd.Context(), args)
		}),
	}
	parseCmd.Flags().BoolVar(&flags.Save, "save", false, "Save the extracted cards")

	syncCmd := &cobra.Command{
		Use:   "sync <url>",
		Short: "Pull new vocabulary from a published document",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(r Runner, cmd *cobra.Command, args []string) error {
			return r.Sync(cmd.Context(), args[0])
		}),
	}
	syncCmd.Flags().BoolVar(&flags.Save, "save", false, "Save the new cards")
	syncCmd.Flags().BoolVar(&flags.Status, "status", false, "Only show when the document last produced new words")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the cards of the current language",
		Args:  cobra.NoArgs,
		RunE: run(func(r Runner, cmd *cobra.Command, args []string) error {
			return r.List(cmd.Context())
		}),
	}
	listCmd.Flags().StringVarP(&flags.Category, "category", "c", "", "Only list this category")

	enrichCmd := &cobra.Command{
		Use:   "enrich <id|term>",
		Short: "Generate the missing details of a card",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(r Runner, cmd *cobra.Command, args []string) error {
			return r.Enrich(cmd.Context(), args[0])
		}),
	}
	enrichCmd.Flags().BoolVar(&flags.Light, "light", false, "Only explanation, image and audio")

	playCmd := &cobra.Command{
		Use:   "play <id|term>",
		Short: "Play the generated pronunciation of a card",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(r Runner, cmd *cobra.Command, args []string) error {
			return r.Play(cmd.Context(), args[0])
		}),
	}

	recordCmd := &cobra.Command{
		Use:   "record <id|term>",
		Short: "Record your pronunciation of a card and replay it",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(r Runner, cmd *cobra.Command, args []string) error {
			return r.Record(cmd.Context(), args[0])
		}),
	}
	recordCmd.Flags().DurationVarP(&flags.Duration, "duration", "d", flags.Duration, "Recording length")
	recordCmd.Flags().StringVarP(&flags.OutputDir, "output", "o", "", "Also save the recording in this directory")
	recordCmd.Flags().BoolVar(&flags.NoReplay, "no-replay", false, "Do not replay the recording")

	reviewCmd := &cobra.Command{
		Use:   "review <id|term>",
		Short: "Record a study answer for a card",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(r Runner, cmd *cobra.Command, args []string) error {
			return r.Review(cmd.Context(), args[0])
		}),
	}
	reviewCmd.Flags().BoolVar(&flags.Wrong, "wrong", false, "The answer was wrong; move the card to Errors")

	deleteCmd := &cobra.Command{
		Use:   "delete <id|term>",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(r Runner, cmd *cobra.Command, args []string) error {
			return r.Delete(cmd.Context(), args[0])
		}),
	}

	rootCmd.AddCommand(addCmd, parseCmd, syncCmd, listCmd, enrichCmd, playCmd, recordCmd, reviewCmd, deleteCmd)
	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	home, _ := os.UserHomeDir()
	defaultStore := filepath.Join(home, ".local", "state", "lanote", "lanote.db")

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.lanote.yaml)")
	pf.StringVarP(&flags.Language, "language", "l", flags.Language, "Target language: korean or japanese")
	pf.StringVar(&flags.StorePath, "store", defaultStore, "Card database")
	pf.StringVarP(&flags.Provider, "provider", "p", flags.Provider, "Content provider: gemini or openai")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Timeout of one generator call")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	pf.StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: text or json")
	pf.StringVar(&flags.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	// Gemini flags
	pf.StringVar(&flags.GeminiTextModel, "gemini-text-model", flags.GeminiTextModel, "Gemini model for text and lists")
	pf.StringVar(&flags.GeminiImageModel, "gemini-image-model", flags.GeminiImageModel, "Gemini model for images")
	pf.StringVar(&flags.GeminiTTSModel, "gemini-tts-model", flags.GeminiTTSModel, "Gemini model for speech")
	pf.StringVar(&flags.GeminiVoice, "gemini-voice", flags.GeminiVoice, "Gemini prebuilt voice")

	// OpenAI flags
	pf.StringVar(&flags.OpenAIChatModel, "openai-chat-model", flags.OpenAIChatModel, "OpenAI model for text and lists")
	pf.StringVar(&flags.OpenAIImageModel, "openai-image-model", flags.OpenAIImageModel, "OpenAI image model: dall-e-2 or dall-e-3")
	pf.StringVar(&flags.OpenAIImageSize, "openai-image-size", flags.OpenAIImageSize, "Image size: 256x256, 512x512, 1024x1024")
	pf.StringVar(&flags.OpenAITTSModel, "openai-tts-model", flags.OpenAITTSModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	pf.StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, ash, coral, echo, fable, onyx, nova, sage, shimmer")
	pf.Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0)")
	pf.StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts (e.g. 'speak slowly')")

	bindFlagsToViper(cmd)
}

// flagKeys maps persistent flags to their configuration keys.
var flagKeys = map[string]string{
	"language":           "language",
	"store":              "store.path",
	"provider":           "generator.provider",
	"timeout":            "generator.timeout",
	"log-level":          "log.level",
	"log-format":         "log.format",
	"metrics-addr":       "metrics.addr",
	"gemini-text-model":  "gemini.text_model",
	"gemini-image-model": "gemini.image_model",
	"gemini-tts-model":   "gemini.tts_model",
	"gemini-voice":       "gemini.voice",
	"openai-chat-model":  "openai.chat_model",
	"openai-image-model": "openai.image_model",
	"openai-image-size":  "openai.image_size",
	"openai-tts-model":   "openai.tts_model",
	"openai-voice":       "openai.voice",
	"openai-speed":       "openai.speed",
	"openai-instruction": "openai.instruction",
}

func bindFlagsToViper(cmd *cobra.Command) {
	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			viper.BindPFlag(key, f)
		}
	})
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".lanote" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lanote")
	}

	// Environment variables, LANOTE_GEMINI_API_KEY for gemini.api_key
	viper.SetEnvPrefix("LANOTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return viper.GetString("gemini.api_key")
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("openai.api_key")
}
