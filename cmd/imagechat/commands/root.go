package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "imagechat",
	Short: "Chat with a model that can also draw",
	Long: `imagechat - chat, image generation and image editing from the command line.

Configuration is read from the environment (and a .env file), optionally
layered over a YAML file named by IMAGECHAT_CONFIG.

  IMAGECHAT_PROVIDER   openai (default) or gemini
  OPENAI_API_KEY       key for the openai provider
  GEMINI_API_KEY       key for the gemini provider

Examples:
  imagechat chat "draw a cat"
  imagechat chat --image photo.png "what is in this picture?"
  imagechat generate -n 2 --size 1792x1024 "a lighthouse at dawn"
  imagechat edit --image a.png --image b.png "combine these into one poster"
  imagechat classify "sunset over mountains"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print results as JSON")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(analyzeCmd)
}
