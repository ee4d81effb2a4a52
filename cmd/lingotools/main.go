package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/lingotools/internal/cli"
	"codeberg.org/snonux/lingotools/internal/langsvc"
	"codeberg.org/snonux/lingotools/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, flags *cli.Flags) error {
	ctx := context.Background()

	// Catalog listings need no collection
	if flags.ListLanguages || flags.ListVoices {
		apiKey := flags.APIKey
		if apiKey == "" {
			apiKey = cli.GetAPIKey()
		}
		client := langsvc.NewClient(flags.BaseURL, apiKey, "", nil)
		lister := processor.NewLister(client, os.Stdout)
		if flags.ListLanguages {
			if err := lister.ListLanguages(ctx); err != nil {
				return err
			}
		}
		if flags.ListVoices {
			return lister.ListVoices(ctx)
		}
		return nil
	}

	proc, err := processor.NewProcessor(flags)
	if err != nil {
		return err
	}
	defer proc.Close()

	switch {
	case flags.Detect:
		return proc.RunDetection(ctx)
	case flags.ApplyRules:
		return proc.RunBatch(ctx)
	default:
		fmt.Fprintln(os.Stderr, "Nothing to do. Use --detect, --apply-rules, --list-languages or --list-voices.")
		return cmd.Usage()
	}
}
