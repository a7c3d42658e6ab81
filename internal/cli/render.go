package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/backdrop/pkg/catalog"
	"github.com/matzehuels/backdrop/pkg/errors"
	"github.com/matzehuels/backdrop/pkg/pipeline"
)

// renderCommand creates the render command for a single screenshot.
func (c *CLI) renderCommand() *cobra.Command {
	var sf styleFlags
	var output string

	cmd := &cobra.Command{
		Use:   "render [image]",
		Short: "Frame one screenshot and write PNG(s)",
		Long: `Frame a screenshot on a background and write a PNG per requested format.

The image may be a file path, an http(s) URL or a data URL. Without an image
only the background is rendered.`,
		Example: `  backdrop render shot.png
  backdrop render shot.png -b grid-paper -f og-image,twitter-post -o out/
  backdrop render https://example.com/shot.png --text-bottom-right "@me"
  backdrop render -b aurora-ellipse -f desktop-hd --background-only`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := ""
			if len(args) == 1 {
				src = args[0]
			}
			return c.runRender(cmd, src, output, &sf)
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or directory")
	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, src, output string, sf *styleFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	e, err := c.loadEnv()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, e)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := e.cfg.Options()
	sf.apply(cmd, &opts)
	opts.Source = src
	opts.Logger = logger

	formats := sf.formats(opts)
	base := pipeline.BaseName(src)
	for _, id := range formats {
		f, ok := e.catalog.Format(id)
		if !ok {
			return errors.New(errors.ErrCodeUnknownFormat, "unknown format %q", id)
		}
		path, err := outputPath(output, pipeline.FileName(base, f), len(formats) > 1)
		if err != nil {
			return err
		}
		if err := renderOne(ctx, runner, opts, id, path); err != nil {
			return err
		}
	}
	return nil
}

func renderOne(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, format, path string) error {
	prog := newProgress(opts.Logger)
	opts.Format = format
	res, err := runner.Render(ctx, opts)
	if err != nil {
		return err
	}
	if err := writeFile(path, res.PNG); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %s", format))
	printFile(path)
	printRenderStats(res.Width, res.Height, res.CacheHit)
	if res.Fallback {
		printWarning("screenshot could not be decoded; rendered the background only")
	}
	return nil
}

// outputPath resolves where one output goes. An output ending in .png is a
// file unless several outputs are written; anything else is a directory.
func outputPath(output, name string, multi bool) (string, error) {
	var path string
	switch {
	case output == "":
		path = name
	case strings.EqualFold(filepath.Ext(output), ".png") && !multi:
		path = output
	default:
		path = filepath.Join(output, name)
	}
	if err := errors.ValidateOutputPath(path); err != nil {
		return "", err
	}
	return path, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// formatLabel describes a format for listings.
func formatLabel(f catalog.Format) string {
	if f.IsAuto() {
		return "sized to the screenshot"
	}
	return fmt.Sprintf("%gx%g", f.Width, f.Height)
}
