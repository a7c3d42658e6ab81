package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/backdrop/pkg/cache"
	"github.com/matzehuels/backdrop/pkg/catalog"
	"github.com/matzehuels/backdrop/pkg/core/render"
	"github.com/matzehuels/backdrop/pkg/errors"
	"github.com/matzehuels/backdrop/pkg/observability"
)

// DefaultBatchConcurrency bounds parallel loading and decoding.
const DefaultBatchConcurrency = 4

// BatchItem is one screenshot of a batch. Non-empty fields override the
// batch defaults for this item only.
type BatchItem struct {
	// Name is the output base name. Empty derives it from Source.
	Name string `json:"name,omitempty" toml:"name"`
	// Source is loaded unless Data is set.
	Source     string        `json:"source,omitempty" toml:"source"`
	Data       []byte        `json:"-" toml:"-"`
	Background string        `json:"background,omitempty" toml:"background"`
	Format     string        `json:"format,omitempty" toml:"format"`
	Style      *render.Style `json:"style,omitempty" toml:"style"`
}

// BatchOptions are the defaults every item starts from.
type BatchOptions struct {
	Options
	// Backgrounds renders every item once per pattern. Empty uses
	// Options.Background.
	Backgrounds []string
	// Formats renders every item once per format. Empty uses
	// Options.Format.
	Formats     []string
	Concurrency int
	// Progress is called after each output is encoded.
	Progress func(done, total int)
}

// Output is one encoded image of a batch.
type Output struct {
	// File is the unique export file name within the batch.
	File       string `json:"file"`
	Item       string `json:"item"`
	Background string `json:"background"`
	Format     string `json:"format"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Fallback   bool   `json:"fallback,omitempty"`
	CacheHit   bool   `json:"cache_hit,omitempty"`
	PNG        []byte `json:"-"`
}

// decoded is a batch item after stage one.
type decoded struct {
	base  string
	hash  string
	img   image.Image
	fault error
}

// Batch renders items across every requested background and format.
//
// Loading and decoding run in parallel, bounded by Concurrency. Drawing
// goes through a single render.Drawer: each draw is awaited through its
// ready callback before the surface is exported. Outputs keep item order,
// then background order, then format order.
func (r *Runner) Batch(ctx context.Context, items []BatchItem, opts BatchOptions) (outputs []Output, err error) {
	start := time.Now()
	defer func() {
		observability.Pipeline().OnBatchComplete(ctx, len(outputs), time.Since(start), err)
	}()

	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(r.catalog()); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	images, err := r.decodeAll(ctx, items, opts)
	if err != nil {
		return nil, err
	}

	imgs := make(map[string]image.Image, len(images))
	for i, d := range images {
		if d.img != nil {
			imgs[strconv.Itoa(i)] = d.img
		}
	}
	drawer := render.NewDrawer(render.LoaderFunc(func(_ context.Context, src string) (image.Image, error) {
		img, ok := imgs[src]
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "no decoded image for item %s", src)
		}
		return img, nil
	}), r.Env)

	type job struct {
		item int
		opts Options
	}
	var jobs []job
	for i, item := range items {
		for _, bg := range pick(item.Background, opts.Backgrounds, opts.Background) {
			for _, f := range pick(item.Format, opts.Formats, opts.Format) {
				o := opts.Options
				o.validated = false
				o.Background = bg
				o.Format = f
				if item.Style != nil {
					o.Style = *item.Style
				}
				if err := o.ValidateAndSetDefaults(r.catalog()); err != nil {
					return nil, fmt.Errorf("item %d: %w", i, err)
				}
				jobs = append(jobs, job{item: i, opts: o})
			}
		}
	}

	names := make(nameSet)
	multiBg := len(opts.Backgrounds) > 1
	for n, j := range jobs {
		d := images[j.item]
		out, err := r.batchOne(ctx, drawer, j.item, d, j.opts)
		if err != nil {
			return outputs, err
		}
		base := d.base
		if multiBg {
			base += "-" + j.opts.Background
		}
		f, _ := r.catalog().Format(j.opts.Format)
		out.File = names.unique(FileName(base, f))
		out.Item = d.base
		outputs = append(outputs, out)
		if opts.Progress != nil {
			opts.Progress(n+1, len(jobs))
		}
	}
	drawer.Wait()
	return outputs, nil
}

// pick resolves one axis of the batch: an item override, else the batch
// list, else the single default.
func pick(override string, list []string, def string) []string {
	switch {
	case override != "":
		return []string{override}
	case len(list) > 0:
		return list
	default:
		return []string{def}
	}
}

// decodeAll loads and decodes every item in parallel. A load error fails
// the batch; a decode error leaves the item background-only.
func (r *Runner) decodeAll(ctx context.Context, items []BatchItem, opts BatchOptions) ([]decoded, error) {
	out := make([]decoded, len(items))
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultBatchConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			d := decoded{base: item.Name}
			if d.base == "" {
				d.base = BaseName(item.Source)
			}
			data := item.Data
			if data == nil && item.Source != "" && !opts.ShowBackgroundOnly {
				var err error
				if data, err = r.Loader.Bytes(gctx, item.Source); err != nil {
					return fmt.Errorf("load %s: %w", item.Source, err)
				}
			}
			d.hash = cache.Hash(data)
			if len(data) > 0 && !opts.ShowBackgroundOnly {
				d.img, d.fault = r.Loader.Decode(data)
				if errors.Is(d.fault, errors.ErrCodeTooLarge) {
					return fmt.Errorf("%s: %w", d.base, d.fault)
				}
				if d.fault != nil {
					opts.Logger.Warn("screenshot did not decode, drawing background only", "item", d.base, "err", d.fault)
				}
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// batchOne draws a single output and waits for it. Cached artifacts skip
// the draw.
func (r *Runner) batchOne(ctx context.Context, drawer *render.Drawer, idx int, d decoded, opts Options) (Output, error) {
	out := Output{Background: opts.Background, Format: opts.Format, Fallback: d.fault != nil}
	key := r.Keyer.ArtifactKey(d.hash, opts.ArtifactKeyOpts())
	if !opts.Refresh && d.fault == nil {
		if png, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if cfg, _, err := image.DecodeConfig(bytes.NewReader(png)); err == nil {
				observability.Cache().OnCacheHit(ctx, "artifact")
				out.PNG, out.Width, out.Height, out.CacheHit = png, cfg.Width, cfg.Height, true
				return out, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	src := ""
	if d.img != nil {
		src = strconv.Itoa(idx)
	}
	ready := make(chan *render.Surface, 1)
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Background, opts.Format)
	start := time.Now()
	drawer.Draw(ctx, render.DrawParams{
		Src:                src,
		Background:         opts.Background,
		Format:             opts.Format,
		Style:              opts.Style,
		ShowBackgroundOnly: opts.ShowBackgroundOnly,
		PixelRatio:         opts.PixelRatio,
		Ready:              func(s *render.Surface) { ready <- s },
	})

	var s *render.Surface
	select {
	case s = <-ready:
	case <-ctx.Done():
		return out, ctx.Err()
	}
	enc, err := r.encode(s, opts)
	hooks.OnRenderComplete(ctx, opts.Background, opts.Format, time.Since(start), err)
	if err != nil {
		return out, err
	}
	out.PNG, out.Width, out.Height = enc.png, enc.width, enc.height

	if d.fault == nil {
		if err := r.Cache.Set(ctx, key, enc.png, r.ttl()); err != nil {
			opts.Logger.Warn("cache write failed", "err", err)
		}
	}
	return out, nil
}

// FormatsOf resolves format ids for a manifest. Unknown ids are skipped.
func FormatsOf(cat render.Catalog, outputs []Output) []catalog.Format {
	seen := map[string]bool{}
	var formats []catalog.Format
	for _, o := range outputs {
		if seen[o.Format] {
			continue
		}
		seen[o.Format] = true
		if f, ok := cat.Format(o.Format); ok {
			formats = append(formats, f)
		}
	}
	return formats
}
