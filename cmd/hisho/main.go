package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hisho/internal/ai"
	"hisho/internal/bot"
	"hisho/internal/channels/telegram"
	"hisho/internal/config"
	"hisho/internal/digest"
	"hisho/internal/store"
	"hisho/internal/version"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hisho",
	Short: "Hisho - personal secretary bot",
	Long: `Hisho is a personal secretary bot that lives in your chat app. It keeps
your conversation history, tracks tasks and ideas, takes journal entries and
sends a daily digest of what happened.`,
	Version: version.Full(),
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot",
	Long: `Start the bot: connect to the chat platform, listen for messages and run
the digest scheduler. This is the main mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Hisho %s\n", version.Full())
		if version.BuildDate != "unknown" {
			fmt.Printf("Build date: %s\n", version.BuildDate)
		}
		fmt.Printf("Go version: %s\n", version.GoVersion)
		return nil
	},
}

// digestCmd runs the digest once for every active user and exits. Useful for
// testing a digest without waiting for the schedule.
var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Send the daily digest now and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDigestOnce()
	},
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.json", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(digestCmd)

	// If no command is specified, default to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	}
}

func initLogging() {
	if verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Println("Verbose logging enabled")
	}
}

// setup loads the config and opens everything the dispatcher needs. The
// returned store is owned by the caller.
func setup() (*config.Config, *store.Store, ai.Provider, *bot.Dispatcher, *telegram.Adapter, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Debug.VerboseLogging = true
	}

	s, err := store.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	providerCfg, err := cfg.AI.Provider(cfg.AI.DefaultProvider)
	if err != nil {
		s.Close()
		return nil, nil, nil, nil, nil, err
	}
	provider, err := ai.NewProvider(providerCfg)
	if err != nil {
		s.Close()
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	adapter, err := telegram.NewAdapter("telegram", telegram.Config{
		BotToken:          cfg.Telegram.BotToken,
		AllowedChatIDs:    cfg.Telegram.AllowedChatIDs,
		Debug:             cfg.Debug.VerboseLogging,
		LogMessageContent: cfg.Debug.LogMessageContent,
	})
	if err != nil {
		s.Close()
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to create Telegram adapter: %w", err)
	}

	keywords, err := bot.LoadKeywords(cfg.Chat.KeywordsFile)
	if err != nil {
		log.Printf("WARNING: %v, using default keywords", err)
	}

	dispatcher := bot.NewDispatcher(s, provider, adapter, bot.Options{
		Keywords:     keywords,
		Location:     cfg.GetLocation(),
		HistoryLimit: cfg.Chat.HistoryLimit,
		MaxReplyLen:  cfg.Chat.MaxReplyLen,
	})

	return cfg, s, provider, dispatcher, adapter, nil
}

func runServe() error {
	cfg, s, _, dispatcher, adapter, err := setup()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal: %v", sig)
		cancel()
	}()

	if err := adapter.Start(ctx); err != nil {
		return fmt.Errorf("failed to start Telegram adapter: %w", err)
	}
	defer adapter.Stop()

	if cfg.Digest.Enabled {
		scheduler, err := digest.NewScheduler(cfg.Digest.Schedule, cfg.GetLocation(), dispatcher.DigestAll)
		if err != nil {
			return fmt.Errorf("failed to create digest scheduler: %w", err)
		}
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start digest scheduler: %w", err)
		}
		defer scheduler.Stop()
		log.Printf("Digest scheduled, next run at %s", scheduler.NextRun().Format("2006-01-02 15:04 MST"))
	}

	log.Printf("Hisho %s started", version.Full())
	dispatcher.Run(ctx)

	log.Println("Hisho stopped gracefully")
	return nil
}

func runDigestOnce() error {
	_, s, _, dispatcher, _, err := setup()
	if err != nil {
		return err
	}
	defer s.Close()

	dispatcher.DigestAll(context.Background())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
