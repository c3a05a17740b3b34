package commands

import (
	"strings"

	"github.com/mhpenta/imagechat"
	"github.com/spf13/cobra"
)

var editFlags struct {
	images     []string
	mask       string
	n          int
	size       string
	quality    string
	noOptimize bool
	outDir     string
}

var editCmd = &cobra.Command{
	Use:   "edit <prompt>",
	Short: "Edit one or more images following a prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEdit,
}

func init() {
	f := editCmd.Flags()
	f.StringArrayVar(&editFlags.images, "image", nil, "input image file (repeatable, at least one)")
	f.StringVar(&editFlags.mask, "mask", "", "optional mask image file")
	f.IntVarP(&editFlags.n, "count", "n", 1, "number of images (1-10)")
	f.StringVar(&editFlags.size, "size", "", "image size, e.g. 1536x1024 or auto")
	f.StringVar(&editFlags.quality, "quality", "", "low, medium, high or auto")
	f.BoolVar(&editFlags.noOptimize, "no-optimize", false, "skip the parameter optimizer")
	f.StringVarP(&editFlags.outDir, "out", "o", ".", "output directory")
	_ = editCmd.MarkFlagRequired("image")
}

func runEdit(cmd *cobra.Command, args []string) error {
	images, err := loadImages(editFlags.images)
	if err != nil {
		return err
	}

	params := imagechat.EditParams{
		Prompt:           strings.Join(args, " "),
		Images:           images,
		N:                editFlags.n,
		Size:             imagechat.Size(editFlags.size),
		Quality:          imagechat.Quality(editFlags.quality),
		SkipOptimization: editFlags.noOptimize,
	}
	if editFlags.mask != "" {
		mask, err := imagechat.ImageFromFile(editFlags.mask)
		if err != nil {
			return err
		}
		params.Mask = &mask
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()

	result, err := a.generator.Edit(ctx, params)
	if err != nil {
		return err
	}
	return printRecords(cmd.OutOrStdout(), editFlags.outDir, result)
}
