package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/lingotools/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lingotools",
		Short: "Language transformations for Anki collections",
		Long: `lingotools runs translation, transliteration and audio rules over
the notes of an Anki collection, using the cloud language tools service.

Examples:
  lingotools --collection col.db --detect
  lingotools --collection col.db --apply-rules --deck "deck 1" --note-type "vocab"
  lingotools --list-languages`,
		Args:    cobra.NoArgs,
		Version: internal.Version,
	}

	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	home, _ := os.UserHomeDir()
	defaultRules := filepath.Join(home, ".config", "lingotools", "rules.json")

	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.lingotools.yaml)")

	// Local flags
	cmd.Flags().StringVarP(&flags.Collection, "collection", "c", "", "Anki collection database file")
	cmd.Flags().StringVar(&flags.MediaDir, "media-dir", "", "Media folder for synthesized audio (default: collection.media next to the collection)")
	cmd.Flags().StringVar(&flags.RulesFile, "rules", defaultRules, "Rule configuration file")
	cmd.Flags().StringVar(&flags.BaseURL, "base-url", "", "Language tools service endpoint (default: production)")
	cmd.Flags().StringVar(&flags.APIKey, "api-key", "", "Language tools API key")

	cmd.Flags().BoolVar(&flags.Detect, "detect", false, "Detect and store the language of every mapped field")
	cmd.Flags().BoolVar(&flags.ApplyRules, "apply-rules", false, "Run all stored rules over a deck/notetype (requires --deck and --note-type)")
	cmd.Flags().StringVar(&flags.Deck, "deck", "", "Deck name for --apply-rules")
	cmd.Flags().StringVar(&flags.NoteType, "note-type", "", "Note type name for --apply-rules")
	cmd.Flags().BoolVar(&flags.Force, "force", false, "Overwrite non-empty target fields without asking")
	cmd.Flags().BoolVar(&flags.ListLanguages, "list-languages", false, "List the languages the service supports")
	cmd.Flags().BoolVar(&flags.ListVoices, "list-voices", false, "List the text-to-speech voices the service offers")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("collection.path", cmd.Flags().Lookup("collection"))
	viper.BindPFlag("collection.media_dir", cmd.Flags().Lookup("media-dir"))
	viper.BindPFlag("rules.path", cmd.Flags().Lookup("rules"))
	viper.BindPFlag("service.base_url", cmd.Flags().Lookup("base-url"))
	viper.BindPFlag("service.api_key", cmd.Flags().Lookup("api-key"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".lingotools" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lingotools")
	}

	// Environment variables
	viper.SetEnvPrefix("LINGOTOOLS")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetAPIKey retrieves the language tools API key from environment or config
func GetAPIKey() string {
	// First check environment variable
	if key := os.Getenv("LANGUAGE_TOOLS_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("service.api_key")
}
