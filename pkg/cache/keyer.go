package cache

// ArtifactKeyOpts are the render options that change the output bytes.
type ArtifactKeyOpts struct {
	Background         string  `json:"background"`
	Format             string  `json:"format"`
	PixelRatio         float64 `json:"pixel_ratio"`
	ShowBackgroundOnly bool    `json:"background_only,omitempty"`
	// Style is the serialized style, hashed as part of the key.
	Style string `json:"style"`
	// Preview is the canvas-size percent for preview renders, zero otherwise.
	Preview float64 `json:"preview,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey keys a PNG by the hash of its source image and options.
	ArtifactKey(imageHash string, opts ArtifactKeyOpts) string
	// SourceKey keys fetched screenshot bytes by their URL.
	SourceKey(url string) string
}

// DefaultKeyer hashes every key component.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(imageHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", imageHash, opts)
}

// SourceKey implements Keyer.
func (DefaultKeyer) SourceKey(url string) string {
	return hashKey("source", url)
}

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// deployments can share one Redis without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner uses
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(imageHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(imageHash, opts)
}

// SourceKey implements Keyer.
func (k *ScopedKeyer) SourceKey(url string) string {
	return k.prefix + k.inner.SourceKey(url)
}
