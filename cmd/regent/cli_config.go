package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/regentbot/regent/pkg/config"
	"github.com/regentbot/regent/pkg/logger"
)

// cliConfig holds everything one agent run needs from env + flags + args.
type cliConfig struct {
	AgentConfigPath string
	Provider        string

	RedditConfigPath string
	OpenAIConfigPath string
	StateFile        string
	MarkdownLogDir   string
	TestMode         bool
	Interval         time.Duration
	LogLevel         logger.Level

	// PrintSchema names a config document whose JSON Schema should be
	// printed instead of running the agent.
	PrintSchema string
}

// parseCLIConfig loads env + flags + positional arguments into runtime config.
func parseCLIConfig(args []string) (*cliConfig, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("regent", flag.ContinueOnError)
	redditConfig := fs.String("reddit_config", config.RedditConfigFilename, "Path to the Reddit config document")
	openaiConfig := fs.String("openai_config", config.OpenAIConfigFilename, "Path to the OpenAI config document")
	stateFile := fs.String("state_file", "agent_state.json", "Path to the persisted agent state")
	markdownLogDir := fs.String("markdown_log_dir", "logs", "Directory for the markdown session log (empty to disable)")
	testMode := fs.Bool("test_mode", false, "Ask for confirmation before every write action")
	interval := fs.Duration("interval", 10*time.Second, "Pause between event cycles")
	logLevel := fs.String("log_level", "INFO", "Log level: DEBUG, INFO, WARN or ERROR")
	printSchema := fs.String("print_schema", "", "Print the JSON Schema for a config document (reddit_config, openai_config or agent_config) and exit")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "Usage: regent [flags] <agent-config.yaml> <provider>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		return nil, err
	}

	cfg := &cliConfig{
		RedditConfigPath: *redditConfig,
		OpenAIConfigPath: *openaiConfig,
		StateFile:        *stateFile,
		MarkdownLogDir:   strings.TrimSpace(*markdownLogDir),
		TestMode:         *testMode,
		Interval:         *interval,
		LogLevel:         level,
		PrintSchema:      strings.TrimSpace(*printSchema),
	}
	if cfg.PrintSchema != "" {
		return cfg, nil
	}

	rest := fs.Args()
	if len(rest) != 2 {
		return nil, fmt.Errorf("expected <agent-config.yaml> and <provider> arguments, got %d", len(rest))
	}
	cfg.AgentConfigPath = rest[0]
	cfg.Provider = strings.ToLower(strings.TrimSpace(rest[1]))
	return cfg, nil
}
