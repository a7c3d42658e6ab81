package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/backdrop/pkg/cache"
	"github.com/matzehuels/backdrop/pkg/catalog"
	"github.com/matzehuels/backdrop/pkg/config"
	"github.com/matzehuels/backdrop/pkg/core/render"
	"github.com/matzehuels/backdrop/pkg/fonts"
	"github.com/matzehuels/backdrop/pkg/pipeline"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, config.Default().Server)
}

func newTestServerWith(t *testing.T, cfg config.ServerConfig) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(fc, nil, logger)
	runner.Env = render.Env{Catalog: catalog.Default(), Fonts: fonts.NewRegistryWithFinder(nil)}

	defaults := pipeline.DefaultOptions()
	defaults.Background = "solid-black"
	defaults.PixelRatio = 1
	defaults.Style.Padding = 10
	defaults.Style.Shadow = 0

	cfg.MaxUploadBytes = 64 << 10
	srv := httptest.NewServer(New(runner, catalog.Default(), defaults, cfg, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func decodePNG(t *testing.T, resp *http.Response) image.Image {
	t.Helper()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Content-Type = %q, want image/png (body %s)", ct, body)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return img
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthAndRequestID(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if _, err := uuid.Parse(resp.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("%s = %q, want a uuid", RequestIDHeader, resp.Header.Get(RequestIDHeader))
	}

	id := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get(RequestIDHeader); got != id {
		t.Errorf("%s = %q, want echoed %q", RequestIDHeader, got, id)
	}
}

func TestCatalogListings(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		path string
		id   string
	}{
		{"/v1/patterns", "top-gradient-radial"},
		{"/v1/formats", "og-image"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			var items []struct {
				ID string `json:"id"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
				t.Fatal(err)
			}
			found := false
			for _, it := range items {
				found = found || it.ID == tt.id
			}
			if !found {
				t.Errorf("%s does not list %q", tt.path, tt.id)
			}
		})
	}
}

func TestRenderJSON(t *testing.T) {
	srv := newTestServer(t)
	data := base64.StdEncoding.EncodeToString(pngBytes(t, 40, 30))

	tests := []struct {
		name          string
		body          map[string]any
		width, height int
	}{
		{"bare base64", map[string]any{"image_data": data}, 60, 50},
		{"data url", map[string]any{"image_data": "data:image/png;base64," + data}, 60, 50},
		{"format option", map[string]any{
			"image_data": data,
			"options":    map[string]any{"format": "instagram-square", "style": map[string]any{"padding": 0}},
		}, 1080, 1080},
		{"background only", map[string]any{"options": map[string]any{"format": "og-image"}}, 1200, 630},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/v1/render", tt.body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			img := decodePNG(t, resp)
			if b := img.Bounds(); b.Dx() != tt.width || b.Dy() != tt.height {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.width, tt.height)
			}
		})
	}
}

func TestRenderCacheHeader(t *testing.T) {
	srv := newTestServer(t)
	body := map[string]any{"image_data": base64.StdEncoding.EncodeToString(pngBytes(t, 8, 8))}

	first := postJSON(t, srv.URL+"/v1/render", body)
	second := postJSON(t, srv.URL+"/v1/render", body)
	if got := first.Header.Get("X-Cache"); got != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", got)
	}
	if got := second.Header.Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
	if first.Header.Get("X-Image-Hash") != cache.Hash(pngBytes(t, 8, 8)) {
		t.Errorf("X-Image-Hash = %q, want the source hash", first.Header.Get("X-Image-Hash"))
	}
	if cd := first.Header.Get("Content-Disposition"); !strings.Contains(cd, "screenshot.png") {
		t.Errorf("Content-Disposition = %q, want screenshot.png", cd)
	}
}

func TestPreview(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/preview", map[string]any{
		"image_data": base64.StdEncoding.EncodeToString(pngBytes(t, 40, 30)),
		"options":    map[string]any{"style": map[string]any{"canvasSize": 50}},
	})
	img := decodePNG(t, resp)
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 25 {
		t.Errorf("preview size = %dx%d, want 30x25", b.Dx(), b.Dy())
	}
}

func TestRenderMultipart(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "Landing Page.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(pngBytes(t, 40, 30))
	mw.WriteField("format", "og-image")
	mw.WriteField("options", `{"style":{"padding":20}}`)
	mw.Close()

	resp, err := http.Post(srv.URL+"/v1/render", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	img := decodePNG(t, resp)
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 630 {
		t.Errorf("size = %dx%d, want 1200x630", b.Dx(), b.Dy())
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "landing-page-open-graph.png") {
		t.Errorf("Content-Disposition = %q, want landing-page-open-graph.png", cd)
	}
}

func TestRenderFallbackHeader(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/render", map[string]any{
		"image_data": base64.StdEncoding.EncodeToString([]byte("not an image")),
		"options":    map[string]any{"format": "og-image"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Render-Fallback"); got != "background-only" {
		t.Errorf("X-Render-Fallback = %q, want background-only", got)
	}
}

func TestRenderErrors(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"unknown pattern", `{"options":{"background":"nope"}}`, http.StatusBadRequest, "UNKNOWN_PATTERN"},
		{"unknown format", `{"options":{"format":"poster"}}`, http.StatusBadRequest, "UNKNOWN_FORMAT"},
		{"bad base64", `{"image_data":"***"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"file url", `{"image_url":"file:///etc/passwd"}`, http.StatusBadRequest, "INVALID_URL"},
		{"unknown field", `{"source":"/etc/passwd"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"padding out of range", `{"options":{"style":{"padding":-5}}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"too large", `{"image_data":"` + strings.Repeat("A", 2<<20) + `"}`, http.StatusRequestEntityTooLarge, "TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/render", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body errorBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", body.Code, tt.code, body.Error)
			}
			if body.RequestID == "" {
				t.Error("error body has no request id")
			}
		})
	}
}

func TestRenderRejectsOversizedDimensions(t *testing.T) {
	cfg := config.Default().Server
	cfg.MaxImageSide = 100
	cfg.MaxImagePixels = 2000
	srv := newTestServerWith(t, cfg)

	tests := []struct {
		name   string
		w, h   int
		status int
	}{
		{"within limits", 40, 40, http.StatusOK},
		{"side too long", 101, 2, http.StatusRequestEntityTooLarge},
		{"too many pixels", 50, 50, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/v1/render", map[string]any{
				"image_data": base64.StdEncoding.EncodeToString(pngBytes(t, tt.w, tt.h)),
				"options":    map[string]any{"format": "og-image"},
			})
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status == http.StatusOK {
				return
			}
			var body errorBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code != "TOO_LARGE" {
				t.Errorf("code = %q, want TOO_LARGE", body.Code)
			}
		})
	}
}

func TestOptionsNeverSetSource(t *testing.T) {
	opts := pipeline.DefaultOptions()
	if err := decodeOptions(json.RawMessage(`{"source":"/etc/passwd","format":"og-image"}`), &opts); err != nil {
		t.Fatal(err)
	}
	if opts.Source != "" || opts.Format != "og-image" {
		t.Errorf("decodeOptions() = source %q format %q, want empty source and og-image", opts.Source, opts.Format)
	}
}
