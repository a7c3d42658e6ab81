// Package loader reads screenshots from files, data URLs and http(s) URLs.
//
// Remote bytes are fetched with retry and may be cached by URL. Decoding
// honours EXIF orientation, so phone screenshots come out upright.
package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	stderrors "errors"
	"image"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/backdrop/pkg/cache"
	"github.com/matzehuels/backdrop/pkg/errors"
	"github.com/matzehuels/backdrop/pkg/httputil"
	"github.com/matzehuels/backdrop/pkg/observability"
)

// Source kinds reported to hooks.
const (
	KindFile = "file"
	KindData = "data"
	KindHTTP = "http"
)

// Loader resolves screenshot sources. The zero value reads files and data
// URLs and fetches http(s) with the default client and no cache.
type Loader struct {
	Client   *http.Client
	MaxBytes int64
	// Cache stores fetched remote bytes under Keyer.SourceKey.
	Cache cache.Cache
	Keyer cache.Keyer
	TTL   time.Duration
	// Limits bounds decoded dimensions. Zero fields use the defaults.
	Limits Limits
}

// Default decode bounds. A screenshot within MaxUploadBytes can still
// declare dimensions whose pixels would not fit in memory.
const (
	DefaultMaxSide   = 16384
	DefaultMaxPixels = 50_000_000
)

// Limits bounds the dimensions of a screenshot before it is decoded.
type Limits struct {
	MaxSide   int
	MaxPixels int64
}

func (lim Limits) withDefaults() Limits {
	if lim.MaxSide <= 0 {
		lim.MaxSide = DefaultMaxSide
	}
	if lim.MaxPixels <= 0 {
		lim.MaxPixels = DefaultMaxPixels
	}
	return lim
}

// Check reads only the image header and rejects dimensions beyond the
// limits with ErrCodeTooLarge.
func (lim Limits) Check(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(errors.ErrCodeImageDecode, err, "decode screenshot")
	}
	lim = lim.withDefaults()
	if cfg.Width > lim.MaxSide || cfg.Height > lim.MaxSide {
		return errors.New(errors.ErrCodeTooLarge, "screenshot is %dx%d, max side is %d", cfg.Width, cfg.Height, lim.MaxSide)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > lim.MaxPixels {
		return errors.New(errors.ErrCodeTooLarge, "screenshot has %d pixels, max is %d", px, lim.MaxPixels)
	}
	return nil
}

// Kind classifies src.
func Kind(src string) string {
	switch {
	case strings.HasPrefix(src, "data:"):
		return KindData
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return KindHTTP
	default:
		return KindFile
	}
}

// Bytes returns the raw, undecoded bytes of src.
func (l *Loader) Bytes(ctx context.Context, src string) ([]byte, error) {
	kind := Kind(src)
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, kind)
	start := time.Now()

	var data []byte
	var err error
	switch kind {
	case KindData:
		data, err = decodeDataURL(src)
	case KindHTTP:
		data, err = l.fetch(ctx, src)
	default:
		data, err = l.readFile(src)
	}
	hooks.OnLoadComplete(ctx, kind, len(data), time.Since(start), err)
	return data, err
}

// Load fetches and decodes src. It implements render.ImageLoader.
func (l *Loader) Load(ctx context.Context, src string) (image.Image, error) {
	data, err := l.Bytes(ctx, src)
	if err != nil {
		return nil, err
	}
	return l.Decode(data)
}

// Decode checks data against l.Limits and decodes it.
func (l *Loader) Decode(data []byte) (image.Image, error) {
	return DecodeLimited(data, l.Limits)
}

// Decode decodes PNG, JPEG, GIF, BMP, TIFF or WebP bytes within the
// default limits.
func Decode(data []byte) (image.Image, error) {
	return DecodeLimited(data, Limits{})
}

// DecodeLimited is Decode with explicit limits.
func DecodeLimited(data []byte, lim Limits) (image.Image, error) {
	if err := lim.Check(data); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageDecode, err, "decode screenshot")
	}
	if img.Bounds().Empty() {
		return nil, errors.New(errors.ErrCodeImageDecode, "screenshot has no pixels")
	}
	return img, nil
}

func (l *Loader) maxBytes() int64 {
	if l.MaxBytes > 0 {
		return l.MaxBytes
	}
	return httputil.DefaultMaxBytes
}

func (l *Loader) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageFetch, err, "read %s", path)
	}
	if info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s is a directory", path)
	}
	if info.Size() > l.maxBytes() {
		return nil, errors.New(errors.ErrCodeTooLarge, "%s exceeds %d bytes", path, l.maxBytes())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageFetch, err, "read %s", path)
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	if err := errors.ValidateImageURL(src); err != nil {
		return nil, err
	}
	keyer := l.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	key := keyer.SourceKey(src)
	if l.Cache != nil {
		if data, ok, err := l.Cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, "source")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "source")
	}

	data, err := httputil.FetchWithRetry(ctx, l.Client, src, l.maxBytes())
	if err != nil {
		if stderrors.Is(err, httputil.ErrTooLarge) {
			return nil, errors.Wrap(errors.ErrCodeTooLarge, err, "fetch %s", src)
		}
		return nil, errors.Wrap(errors.ErrCodeImageFetch, err, "fetch %s", src)
	}
	if l.Cache != nil {
		ttl := l.TTL
		if ttl <= 0 {
			ttl = cache.PreviewTTL
		}
		if err := l.Cache.Set(ctx, key, data, ttl); err == nil {
			observability.Cache().OnCacheSet(ctx, "source", len(data))
		}
	}
	return data, nil
}

// decodeDataURL decodes "data:[<mediatype>][;base64],<data>".
func decodeDataURL(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidURL, "data URL has no payload")
	}
	if strings.HasSuffix(meta, ";base64") {
		payload = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, payload)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidURL, err, "data URL payload")
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidURL, err, "data URL payload")
	}
	return []byte(s), nil
}
