package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bigshabei/dogdiary/internal/config"
	"github.com/bigshabei/dogdiary/internal/diary"
	"github.com/bigshabei/dogdiary/internal/gateway"
	"github.com/bigshabei/dogdiary/internal/llm"
)

var rootCmd = &cobra.Command{
	Use:   "dogdiary",
	Short: "dogdiary - a daily dog diary bot with human-like memory decay",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the daemon (channels + daily generation and broadcast)",
	RunE:  runRun,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Show or generate today's diary entry",
	RunE:  runGenerate,
}

var listCmd = &cobra.Command{
	Use:   "list [YYYY-MM]",
	Short: "List diary entries, optionally filtered to one month or day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and data directories",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dogdiary status",
	RunE:  runStatus,
}

var (
	rewriteFlag   bool
	ephemeralFlag bool
)

func init() {
	generateCmd.Flags().BoolVar(&rewriteFlag, "rewrite", false, "Overwrite today's entry")
	generateCmd.Flags().BoolVar(&ephemeralFlag, "ephemeral", false, "Generate without persisting")
	rootCmd.AddCommand(runCmd, generateCmd, listCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildService() (*diary.Service, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create llm client: %w", err)
	}
	store := diary.NewStore(cfg.Diary.DataDir)
	return diary.NewService(store, client, cfg.Diary), cfg, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Provider.APIKey == "" {
		return fmt.Errorf("API key not set. Run 'dogdiary onboard' or set DOGDIARY_API_KEY / OPENAI_API_KEY")
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}
	return gw.Run(context.Background())
}

func runGenerate(cmd *cobra.Command, args []string) error {
	svc, _, err := buildService()
	if err != nil {
		return err
	}
	now := time.Now()

	var entry diary.Entry
	switch {
	case ephemeralFlag:
		entry, err = svc.Ephemeral(now)
	case rewriteFlag:
		entry, err = svc.Rewrite(now)
	default:
		entry, _, err = svc.Today(now)
	}
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	fmt.Printf("【Dog Diary - %s】\n%s\n", entry.Time, entry.Content)
	if entry.EmotionScore > 0 {
		fmt.Printf("(emotion %d/10)\n", entry.EmotionScore)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store := diary.NewStore(cfg.Diary.DataDir)
	entries := store.LoadEntries()
	if len(entries) == 0 {
		fmt.Println("No diary entries yet.")
		return nil
	}

	// List needs no model calls; reuse the service formatting without a client.
	svc := diary.NewService(store, nil, cfg.Diary)
	filter := ""
	if len(args) > 0 {
		filter = args[0]
	}
	lines := svc.List(filter)
	if len(lines) == 0 {
		fmt.Println("No diary entries match.")
		return nil
	}
	fmt.Println("【Dog Diary List】")
	fmt.Println(strings.Join(lines, "\n"))
	return nil
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		data, _ := json.MarshalIndent(cfg, "", "  ")
		if err := os.WriteFile(cfgPath, data, 0644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	cfg, _ := config.LoadConfig()
	if err := os.MkdirAll(cfg.Diary.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	fmt.Printf("Data dir ready: %s\n", cfg.Diary.DataDir)
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to set your API key and telegram token\n", cfgPath)
	fmt.Println("  2. Or set DOGDIARY_API_KEY / DOGDIARY_TELEGRAM_TOKEN environment variables")
	fmt.Println("  3. Run 'dogdiary generate' to test")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Data dir: %s\n", cfg.Diary.DataDir)
	fmt.Printf("Model: %s\n", cfg.Provider.Model)
	fmt.Printf("API Key: %s\n", maskKey(cfg.Provider.APIKey))
	fmt.Printf("Style: %s (%d-%d words)\n", cfg.Diary.Style, cfg.Diary.MinWordCount, cfg.Diary.MaxWordCount)
	fmt.Printf("Generate at: %s, send at: %s\n", cfg.Diary.AutoGenerateTime, cfg.Diary.AutoSendTime)
	fmt.Printf("Destinations: %d\n", len(cfg.Diary.Destinations))
	fmt.Printf("Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)

	store := diary.NewStore(cfg.Diary.DataDir)
	entries := store.LoadEntries()
	fmt.Printf("Entries: %d\n", len(entries))
	state := store.LoadSendState()
	if state.LastSentDate != "" {
		fmt.Printf("Last sent: %s\n", state.LastSentDate)
	} else {
		fmt.Println("Last sent: never")
	}
	return nil
}

func maskKey(key string) string {
	if key == "" {
		return "not set"
	}
	if len(key) > 8 {
		return key[:4] + "..." + key[len(key)-4:]
	}
	return "set"
}
