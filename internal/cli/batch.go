package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/backdrop/pkg/core/render"
	"github.com/matzehuels/backdrop/pkg/errors"
	"github.com/matzehuels/backdrop/pkg/pipeline"
)

// batchOpts holds the batch-only flags.
type batchOpts struct {
	output      string
	zip         string
	backgrounds string
	itemsFile   string
	concurrency int
}

// itemsFile is the TOML layout of --items. Styles are decoded over the
// batch style so an item only lists what it changes.
type itemsFile struct {
	Items []struct {
		pipeline.BatchItem
		Style *toml.Primitive `toml:"style"`
	} `toml:"items"`
}

// batchCommand creates the batch command.
func (c *CLI) batchCommand() *cobra.Command {
	var sf styleFlags
	var bo batchOpts

	cmd := &cobra.Command{
		Use:   "batch [images...]",
		Short: "Frame many screenshots, optionally into a zip",
		Long: `Frame many screenshots with shared settings.

Every image is rendered once per background and format. Per-image overrides
come from an --items TOML file:

  [[items]]
  source = "home.png"
  format = "og-image"

  [[items]]
  source = "pricing.png"
  name = "pricing-dark"
  background = "dark-grid"
  [items.style]
  padding = 32`,
		Example: `  backdrop batch shots/*.png -f og-image,instagram-square -o out/
  backdrop batch a.png b.png --backgrounds grid-paper,aurora-ellipse --zip
  backdrop batch --items shots.toml --zip release.zip`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd, args, &sf, &bo)
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&bo.output, "output", "o", ".", "output directory")
	cmd.Flags().StringVar(&bo.zip, "zip", "", "write a zip archive instead of loose files")
	cmd.Flags().Lookup("zip").NoOptDefVal = pipeline.DefaultArchiveName
	cmd.Flags().StringVar(&bo.backgrounds, "backgrounds", "", "render every image on each of these patterns (comma-separated)")
	cmd.Flags().StringVar(&bo.itemsFile, "items", "", "TOML file with per-image overrides")
	cmd.Flags().IntVarP(&bo.concurrency, "jobs", "j", pipeline.DefaultBatchConcurrency, "parallel image loads")
	return cmd
}

func (c *CLI) runBatch(cmd *cobra.Command, args []string, sf *styleFlags, bo *batchOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	e, err := c.loadEnv()
	if err != nil {
		return err
	}

	opts := pipeline.BatchOptions{
		Options:     e.cfg.Options(),
		Backgrounds: splitList(bo.backgrounds),
		Concurrency: bo.concurrency,
	}
	sf.apply(cmd, &opts.Options)

	items, err := batchItems(args, bo.itemsFile, opts.Style)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no images given")
	}

	runner, err := c.newRunner(ctx, e)
	if err != nil {
		return err
	}
	defer runner.Close()
	opts.Formats = sf.formats(opts.Options)
	opts.Logger = logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %d screenshots...", len(items)))
	spinner.Start()
	opts.Progress = func(done, total int) {
		spinner.SetMessage(fmt.Sprintf("Rendered %d/%d", done, total))
	}
	prog := newProgress(logger)
	outputs, err := runner.Batch(ctx, items, opts)
	if err != nil {
		spinner.StopWithError("Batch failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %d images", len(outputs)))

	if bo.zip != "" {
		return writeArchive(bo.output, bo.zip, pipeline.NewManifest(outputs, pipeline.FormatsOf(e.catalog, outputs)))
	}
	for _, o := range outputs {
		path := filepath.Join(bo.output, o.File)
		if err := errors.ValidateOutputPath(path); err != nil {
			return err
		}
		if err := writeFile(path, o.PNG); err != nil {
			return err
		}
		printFile(path)
		printRenderStats(o.Width, o.Height, o.CacheHit)
	}
	return nil
}

// batchItems combines positional images with an optional items file.
func batchItems(args []string, path string, base render.Style) ([]pipeline.BatchItem, error) {
	var items []pipeline.BatchItem
	if path != "" {
		var f itemsFile
		md, err := toml.DecodeFile(path, &f)
		if err != nil {
			return nil, fmt.Errorf("read items: %w", err)
		}
		for _, it := range f.Items {
			item := it.BatchItem
			if it.Style != nil {
				style := base
				if err := md.PrimitiveDecode(*it.Style, &style); err != nil {
					return nil, fmt.Errorf("read items: %s: %w", item.Source, err)
				}
				item.Style = &style
			}
			items = append(items, item)
		}
	}
	for _, src := range args {
		items = append(items, pipeline.BatchItem{Source: src})
	}
	return items, nil
}

func writeArchive(dir, name string, m pipeline.Manifest) error {
	path := name
	if !filepath.IsAbs(name) && filepath.Dir(name) == "." {
		path = filepath.Join(dir, name)
	}
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := pipeline.WriteZip(f, m); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printSuccess("Wrote %d images", len(m.Items))
	printFile(path)
	printDetail("batch %s", m.BatchID)
	return nil
}
