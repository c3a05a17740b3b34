package commands

import (
	"strings"

	"github.com/mhpenta/imagechat"
	"github.com/spf13/cobra"
)

var genFlags struct {
	n          int
	size       string
	quality    string
	background string
	noOptimize bool
	outDir     string
}

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate images from a prompt",
	Long: `Generate images from a prompt. Parameters that are not given are chosen
by the optimizer, falling back to the configured defaults.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.IntVarP(&genFlags.n, "count", "n", 1, "number of images (1-10)")
	f.StringVar(&genFlags.size, "size", "", "image size, e.g. 1024x1024")
	f.StringVar(&genFlags.quality, "quality", "", "low, medium, high or auto")
	f.StringVar(&genFlags.background, "background", "", "auto or transparent")
	f.BoolVar(&genFlags.noOptimize, "no-optimize", false, "skip the parameter optimizer")
	f.StringVarP(&genFlags.outDir, "out", "o", ".", "output directory")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()

	result, err := a.generator.Generate(ctx, imagechat.GenerateParams{
		Prompt:           strings.Join(args, " "),
		N:                genFlags.n,
		Size:             imagechat.Size(genFlags.size),
		Quality:          imagechat.Quality(genFlags.quality),
		Background:       imagechat.Background(genFlags.background),
		SkipOptimization: genFlags.noOptimize,
	})
	if err != nil {
		return err
	}
	return printRecords(cmd.OutOrStdout(), genFlags.outDir, result)
}
