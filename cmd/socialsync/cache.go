package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local state directory",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every locally stored value, including the session token",
	RunE:  withApp(runCacheClear),
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	keys, err := a.store.Keys()
	if err != nil {
		return err
	}
	if err := a.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries from %s\n", len(keys), a.store.Dir())
	return nil
}
