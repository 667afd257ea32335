package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		apiKey     string
	)

	cmd := &cobra.Command{
		Use:   "vocalens",
		Short: "Edit photos by typing or talking",
		Long: "Vocalens edits images with natural-language instructions, either " +
			"one-shot from the command line or through a live spoken conversation " +
			"with a voice agent that can apply edits mid-conversation.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.vocalens.yaml)")
	cmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (default $GEMINI_API_KEY)")

	cmd.AddCommand(newEditCmd(&configPath, &apiKey))
	cmd.AddCommand(newLiveCmd(&configPath, &apiKey))
	return cmd
}
