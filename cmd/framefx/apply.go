package main

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/spf13/cobra"
)

type applyOptions struct {
	EffectID   string
	InputPath  string
	OutputPath string
	Set        []string
}

var applyCmdRunner = runApply

func newApplyCmd(root *rootFlags) *cobra.Command {
	opts := applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply an effect to an image and write the result as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateApplyOptions(opts); err != nil {
				return err
			}

			return applyCmdRunner(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.EffectID, "effect", "e", "", "Effect id (defaults to the configured startup effect)")
	cmd.Flags().StringVarP(&opts.InputPath, "in", "i", "", "Input image (PNG or JPEG)")
	cmd.Flags().StringVarP(&opts.OutputPath, "out", "o", "", "Output PNG path")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "Set a parameter (name=value, repeatable)")
	cmd.MarkFlagRequired("in")  //nolint:errcheck
	cmd.MarkFlagRequired("out") //nolint:errcheck

	return cmd
}

func runApply(cmd *cobra.Command, root *rootFlags, opts applyOptions) error {
	overrides, err := parseAssignments(opts.Set)
	if err != nil {
		return newCommandError("apply", "parsing --set", err, "Use --set name=value.")
	}

	app, err := newAppContext(cmd, root, "apply")
	if err != nil {
		return err
	}
	defer app.Close()

	id := opts.EffectID
	if id == "" {
		id = app.Config.Startup.Effect
	}
	if id == "" {
		return newCommandError("apply", "choosing an effect", fmt.Errorf("no effect given"), "Pass --effect or set startup.effect in the configuration.")
	}
	if err := app.selectEffect(id, overrides); err != nil {
		return newCommandError("apply", fmt.Sprintf("preparing effect %q", id), err, "Run 'framefx show "+id+"' to view its parameters.")
	}

	frame, err := readFrame(opts.InputPath)
	if err != nil {
		return newCommandError("apply", "reading the input image", err, "Provide a readable PNG or JPEG file.")
	}

	out := app.Manager.ApplyEffect(frame)
	if err := writeFrame(opts.OutputPath, out); err != nil {
		return newCommandError("apply", "writing the output image", err, "Check that the output directory exists and is writable.")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Applied %s to %s -> %s\n", id, opts.InputPath, opts.OutputPath)
	return nil
}

func readFrame(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba, nil
}

func writeFrame(path string, frame *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, frame); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
