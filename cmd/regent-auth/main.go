// Package main runs the one-time Reddit OAuth bootstrap and prints the
// refresh token to put into the Reddit config document.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/regentbot/regent/pkg/config"
	"github.com/regentbot/regent/pkg/reddit"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("regent-auth", flag.ContinueOnError)
	redditConfig := fs.String("reddit_config", config.RedditConfigFilename, "Path to the Reddit config document")
	redirectURL := fs.String("redirect", reddit.DefaultRedirectURL, "OAuth redirect URL registered with the Reddit app")
	timeout := fs.Duration("timeout", reddit.DefaultAuthTimeout, "How long to wait for the browser authorization")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadReddit(*redditConfig)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auth := reddit.NewAuthenticator(reddit.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		UserAgent:    cfg.UserAgent,
	}, *redirectURL)

	fmt.Println("Open this URL in a browser and authorize the app:")
	fmt.Println()
	fmt.Println("  " + auth.AuthURL())
	fmt.Println()
	fmt.Printf("Waiting up to %s for the redirect on %s ...\n", *timeout, *redirectURL)

	code, err := auth.WaitForCode(ctx, *timeout)
	if err != nil {
		return err
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	refreshToken, err := auth.Exchange(exchangeCtx, code)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Authorization complete. Add this line to " + *redditConfig + ":")
	fmt.Println()
	fmt.Printf("  refresh_token: %s\n", refreshToken)
	return nil
}
