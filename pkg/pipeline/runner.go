package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/backdrop/pkg/cache"
	"github.com/matzehuels/backdrop/pkg/catalog"
	"github.com/matzehuels/backdrop/pkg/core/render"
	"github.com/matzehuels/backdrop/pkg/errors"
	"github.com/matzehuels/backdrop/pkg/loader"
	"github.com/matzehuels/backdrop/pkg/observability"
)

// Runner renders with caching. It holds no per-render state, so one Runner
// may serve concurrent renders.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Loader *loader.Loader
	Env    render.Env
	// TTL is the artifact lifetime. Zero means cache.ArtifactTTL.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses DefaultKeyer and a nil logger uses log.Default.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Loader: &loader.Loader{},
	}
}

// Result is one rendered PNG.
type Result struct {
	PNG    []byte
	Width  int
	Height int
	// ImageHash is the SHA-256 of the source bytes.
	ImageHash string
	// Fallback is set when the screenshot failed to decode and only the
	// background was drawn.
	Fallback bool
	CacheHit bool
	Stats    Stats
}

// Stats contains timing information.
type Stats struct {
	LoadTime   time.Duration
	RenderTime time.Duration
}

// Render loads opts.Source and renders it.
func (r *Runner) Render(ctx context.Context, opts Options) (*Result, error) {
	var data []byte
	var loadTime time.Duration
	if opts.Source != "" && !opts.ShowBackgroundOnly {
		start := time.Now()
		var err error
		data, err = r.Loader.Bytes(ctx, opts.Source)
		if err != nil {
			return nil, err
		}
		loadTime = time.Since(start)
	}
	res, err := r.RenderBytes(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.LoadTime = loadTime
	return res, nil
}

// RenderBytes renders encoded screenshot bytes. Empty data renders the
// background alone. Undecodable data also renders the background alone and
// sets Result.Fallback. Dimensions beyond r.Loader.Limits fail with
// ErrCodeTooLarge.
func (r *Runner) RenderBytes(ctx context.Context, data []byte, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(r.catalog()); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	imageHash := cache.Hash(data)
	key := r.Keyer.ArtifactKey(imageHash, opts.ArtifactKeyOpts())
	if !opts.Refresh {
		if png, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if cfg, _, err := image.DecodeConfig(bytes.NewReader(png)); err == nil {
				observability.Cache().OnCacheHit(ctx, "artifact")
				return &Result{PNG: png, Width: cfg.Width, Height: cfg.Height, ImageHash: imageHash, CacheHit: true}, nil
			}
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Background, opts.Format)
	start := time.Now()

	req := opts.request()
	fallback := false
	if len(data) > 0 && !opts.ShowBackgroundOnly {
		img, err := r.Loader.Decode(data)
		if errors.Is(err, errors.ErrCodeTooLarge) {
			hooks.OnRenderComplete(ctx, opts.Background, opts.Format, time.Since(start), err)
			return nil, err
		}
		if err != nil {
			opts.Logger.Warn("screenshot did not decode, drawing background only", "err", err)
			fallback = true
		} else {
			req.Image = img
		}
	}

	out, err := r.encode(render.Compose(req, r.Env), opts)
	elapsed := time.Since(start)
	hooks.OnRenderComplete(ctx, opts.Background, opts.Format, elapsed, err)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("composed", "pattern", opts.Background, "format", opts.Format, "duration", elapsed)

	if !fallback {
		if err := r.Cache.Set(ctx, key, out.png, r.ttl()); err != nil {
			opts.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(out.png))
		}
	}
	return &Result{
		PNG:       out.png,
		Width:     out.width,
		Height:    out.height,
		ImageHash: imageHash,
		Fallback:  fallback,
		Stats:     Stats{RenderTime: elapsed},
	}, nil
}

type encoded struct {
	png           []byte
	width, height int
}

// encode exports s at logical size, or at the preview scale.
func (r *Runner) encode(s *render.Surface, opts Options) (encoded, error) {
	var img image.Image
	if opts.Preview {
		img = render.Preview(s, opts.Style.CanvasSize)
	} else {
		img = render.Export(s)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return encoded{}, errors.Wrap(errors.ErrCodeEncode, err, "encode png")
	}
	b := img.Bounds()
	return encoded{png: buf.Bytes(), width: b.Dx(), height: b.Dy()}, nil
}

func (r *Runner) catalog() render.Catalog {
	if r.Env.Catalog != nil {
		return r.Env.Catalog
	}
	return catalog.Default()
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.ArtifactTTL
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
