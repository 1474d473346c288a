// Package main runs the Reddit agent loop for one agent config document.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/regentbot/regent/pkg/agent"
	"github.com/regentbot/regent/pkg/config"
	"github.com/regentbot/regent/pkg/fmtlog"
	"github.com/regentbot/regent/pkg/logger"
	"github.com/regentbot/regent/pkg/provider"
	"github.com/regentbot/regent/pkg/reddit"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cliCfg, err := parseCLIConfig(args)
	if err != nil {
		return err
	}
	if cliCfg.PrintSchema != "" {
		schema, err := config.SchemaJSON(cliCfg.PrintSchema)
		if err != nil {
			return err
		}
		fmt.Println(schema)
		return nil
	}

	agentCfg, err := config.LoadAgent(cliCfg.AgentConfigPath)
	if err != nil {
		return err
	}
	redditCfg, err := config.LoadReddit(cliCfg.RedditConfigPath)
	if err != nil {
		return err
	}
	if err := redditCfg.RequireRefreshToken(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger := logger.NewWriterLogger(os.Stderr, cliCfg.LogLevel)
	fmtLog, closeLog, err := newFmtLog(cliCfg.MarkdownLogDir)
	if err != nil {
		return err
	}
	defer closeLog()

	p, err := newProvider(cliCfg)
	if err != nil {
		return err
	}

	client, err := reddit.NewClient(ctx, reddit.Credentials{
		ClientID:     redditCfg.ClientID,
		ClientSecret: redditCfg.ClientSecret,
		UserAgent:    redditCfg.UserAgent,
		RefreshToken: redditCfg.RefreshToken,
	}, reddit.WithLogger(appLogger))
	if err != nil {
		return err
	}

	env, err := agent.NewEnv(agentCfg, p, client, cliCfg.StateFile)
	if err != nil {
		return err
	}
	env.TestMode = cliCfg.TestMode
	env.Interval = cliCfg.Interval
	env.Log = appLogger
	env.Fmt = fmtLog
	env.Stream = reddit.StreamSubmissions(ctx, client, reddit.StreamOptions{
		Subreddits: agentCfg.ActiveOnSubreddits,
		MaxAge:     time.Duration(agentCfg.MaxPostAgeForReplyingHours) * time.Hour,
		SelfOnly:   true,
		Logger:     appLogger,
	})

	fmtLog.Textf("Starting agent '%s' on subreddits: %v", agentCfg.Name, agentCfg.ActiveOnSubreddits)
	if err := agent.Run(ctx, env); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmtLog.Text("Shutting down.")
	return nil
}

func newProvider(cliCfg *cliConfig) (provider.Provider, error) {
	switch cliCfg.Provider {
	case "openai":
		openaiCfg, err := config.LoadOpenAI(cliCfg.OpenAIConfigPath)
		if err != nil {
			return nil, err
		}
		return provider.NewOpenAI(openaiCfg)
	default:
		return nil, provider.ErrUnknown(cliCfg.Provider)
	}
}

// newFmtLog builds the formatted output log: a colored terminal sink, plus a
// timestamped markdown file when logDir is set.
func newFmtLog(logDir string) (*fmtlog.Log, func(), error) {
	log := fmtlog.New(fmtlog.NewTerminalSink(os.Stdout))
	if logDir == "" {
		return log, func() {}, nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	name := time.Now().UTC().Format("2006-01-02T15-04-05") + ".log.md"
	f, err := os.Create(filepath.Join(logDir, name))
	if err != nil {
		return nil, nil, fmt.Errorf("create markdown log: %w", err)
	}
	log.Register(fmtlog.NewMarkdownSink(f))
	return log, func() { _ = f.Close() }, nil
}
