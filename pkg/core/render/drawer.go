package render

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
)

// ImageLoader fetches and decodes the screenshot named by src.
type ImageLoader interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

// LoaderFunc adapts a function to ImageLoader.
type LoaderFunc func(ctx context.Context, src string) (image.Image, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, src string) (image.Image, error) { return f(ctx, src) }

// DrawParams is one draw of a Drawer.
type DrawParams struct {
	// Src names the screenshot. Empty draws the background alone.
	Src                string
	Background         string
	Format             string
	Style              Style
	ShowBackgroundOnly bool
	PixelRatio         float64
	// Ready is called with the finished surface unless a newer draw
	// superseded this one. Calls are serialized, so Ready must not start a
	// draw without Src on the same Drawer.
	Ready func(*Surface)
}

// Drawer owns a current surface and redraws it on request. Only the most
// recent draw may publish: an image load that completes after a newer draw
// started is discarded.
type Drawer struct {
	loader ImageLoader
	env    Env

	gen atomic.Uint64
	wg  sync.WaitGroup

	mu      sync.Mutex
	current *Surface
	lastErr error

	// readyMu orders Ready calls so the newest surface is delivered last.
	readyMu sync.Mutex
}

// NewDrawer returns a Drawer loading screenshots with loader.
func NewDrawer(loader ImageLoader, env Env) *Drawer {
	return &Drawer{loader: loader, env: env}
}

// Draw starts a redraw. A draw without Src completes before Draw returns;
// otherwise the image is loaded in the background. A load failure falls
// back to the background alone and is reported by Err.
func (d *Drawer) Draw(ctx context.Context, p DrawParams) {
	gen := d.gen.Add(1)
	req := Request{
		Background:         p.Background,
		Format:             p.Format,
		Style:              p.Style,
		ShowBackgroundOnly: p.ShowBackgroundOnly,
		PixelRatio:         p.PixelRatio,
	}
	if p.Src == "" || p.ShowBackgroundOnly || d.loader == nil {
		d.publish(gen, Compose(req, d.env), nil, p.Ready)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		img, err := d.loader.Load(ctx, p.Src)
		if d.gen.Load() != gen {
			return
		}
		if err == nil {
			req.Image = img
		}
		d.publish(gen, Compose(req, d.env), err, p.Ready)
	}()
}

func (d *Drawer) publish(gen uint64, s *Surface, err error, ready func(*Surface)) {
	d.mu.Lock()
	if d.gen.Load() != gen {
		d.mu.Unlock()
		return
	}
	d.current = s
	d.lastErr = err
	d.mu.Unlock()
	if ready == nil {
		return
	}
	d.readyMu.Lock()
	defer d.readyMu.Unlock()
	if d.gen.Load() != gen {
		return
	}
	ready(s)
}

// Current returns the last published surface, or nil.
func (d *Drawer) Current() *Surface {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Err returns the load error of the last published draw.
func (d *Drawer) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// Wait blocks until every pending load has finished.
func (d *Drawer) Wait() { d.wg.Wait() }
