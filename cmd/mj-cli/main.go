package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var version = "2.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mj-cli",
	Short: "Command-line client for the Midjourney API and its fallback service",
	Long: `mj-cli talks to a running Midjourney API (or the fallback service).

Examples:
  mj-cli health
  mj-cli images --format yaml
  mj-cli generate "a red fox in snow" --ar 16:9 --out fox.png
  mj-cli generate "same style" --file ref1.png --file ref2.png --out styled.jpg
  mj-cli generate "a red fox" --url http://localhost:3148 --out fox.png`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var globalOpts struct {
	baseURL string
	format  string
	token   string
	timeout time.Duration
}

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(generateCmd)

	defaultURL := os.Getenv("MJ_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:3147"
	}
	rootCmd.PersistentFlags().StringVar(&globalOpts.baseURL, "url", defaultURL, "Service base URL (env MJ_API_URL)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.format, "format", "json", "Output format: json or yaml")
	rootCmd.PersistentFlags().StringVar(&globalOpts.token, "token", os.Getenv("MJ_API_TOKEN"), "Bearer token when auth is enabled (env MJ_API_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&globalOpts.timeout, "timeout", 10*time.Minute, "Request timeout")
}
