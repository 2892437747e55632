package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "socialsync",
	Short: "SocialSync: schedule and analyze social media posts",
	Long: "SocialSync talks to the SocialSync API to manage scheduled posts, connected " +
		"accounts, analytics and team settings. When the API is unreachable, post " +
		"management keeps working from local storage under the degraded policy.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults and SOCIALSYNC_* variables)")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
