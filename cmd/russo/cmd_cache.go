package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/russolabs/russo/internal/audiocache"
)

var cacheCmdDir string

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the synthesized-audio cache",
	}
	cmd.PersistentFlags().StringVar(&cacheCmdDir, "cache-dir", defaultCacheDir, "Audio cache directory")

	cmd.AddCommand(newCacheInfoCommand())
	cmd.AddCommand(newCacheClearCommand())
	cmd.AddCommand(newCacheExportCommand())
	cmd.AddCommand(newCacheImportCommand())
	return cmd
}

func newCacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache location and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := audiocache.New(cacheCmdDir)
			if err != nil {
				return err
			}
			count, bytes, err := c.Size()
			if err != nil {
				return err
			}
			fmt.Printf("Cache directory: %s\n", c.Dir())
			fmt.Printf("Entries:         %d\n", count)
			fmt.Printf("Audio bytes:     %d\n", bytes)
			return nil
		},
	}
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached audio entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := audiocache.New(cacheCmdDir)
			if err != nil {
				return err
			}
			count, _, err := c.Size()
			if err != nil {
				return err
			}
			if err := c.Clear(); err != nil {
				return err
			}
			fmt.Printf("Removed %d entries from %s\n", count, c.Dir())
			return nil
		},
	}
}

func newCacheExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <archive.tar.gz>",
		Short: "Export the cache to a tar.gz archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := audiocache.New(cacheCmdDir)
			if err != nil {
				return err
			}
			if err := c.Archive(args[0]); err != nil {
				return err
			}
			count, _, _ := c.Size()
			fmt.Printf("Exported %d entries to %s\n", count, args[0])
			return nil
		},
	}
}

func newCacheImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <archive.tar.gz>",
		Short: "Import cache entries from a tar.gz archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := audiocache.New(cacheCmdDir)
			if err != nil {
				return err
			}
			if err := c.Restore(args[0]); err != nil {
				return err
			}
			count, _, err := c.Size()
			if err != nil {
				return err
			}
			fmt.Printf("Cache now holds %d entries\n", count)
			return nil
		},
	}
}
