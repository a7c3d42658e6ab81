package server

import (
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/backdrop/pkg/errors"
	"github.com/matzehuels/backdrop/pkg/pipeline"
)

// renderRequest is the JSON body of a render.
type renderRequest struct {
	ImageURL string `json:"image_url,omitempty"`
	// ImageData is a data URL or bare base64.
	ImageData string          `json:"image_data,omitempty"`
	Options   json.RawMessage `json:"options,omitempty"`
}

// multipartSlack covers form fields and part headers around the image.
const multipartSlack = 1 << 20

func (s *Server) handleRender(preview bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody())

		data, opts, base, err := s.parseRender(r)
		if err != nil {
			s.writeError(w, r, bodyError(err))
			return
		}
		opts.Preview = preview
		opts.Logger = s.logger.With("request_id", RequestID(r.Context()))

		res, err := s.runner.RenderBytes(r.Context(), data, opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		f, _ := s.catalog.Format(opts.Format)
		h := w.Header()
		h.Set("Content-Type", "image/png")
		h.Set("Content-Length", strconv.Itoa(len(res.PNG)))
		h.Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{
			"filename": pipeline.FileName(base, f),
		}))
		h.Set("X-Image-Hash", res.ImageHash)
		h.Set("X-Cache", cacheStatus(res.CacheHit))
		if res.Fallback {
			h.Set("X-Render-Fallback", "background-only")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.PNG)
	}
}

func (s *Server) maxBody() int64 {
	// base64 inflates JSON bodies by a third.
	return s.cfg.MaxUploadBytes*4/3 + multipartSlack
}

// parseRender reads the screenshot bytes, the options and an output base
// name from either body kind.
func (s *Server) parseRender(r *http.Request) ([]byte, pipeline.Options, string, error) {
	opts := s.defaults
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "multipart/form-data":
		return s.parseMultipart(r, opts)
	case "application/json", "":
		return s.parseJSON(r, opts)
	default:
		return nil, opts, "", errors.New(errors.ErrCodeInvalidInput, "unsupported content type %q", ct)
	}
}

func (s *Server) parseJSON(r *http.Request, opts pipeline.Options) ([]byte, pipeline.Options, string, error) {
	var req renderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, opts, "", err
	}
	if err := decodeOptions(req.Options, &opts); err != nil {
		return nil, opts, "", err
	}

	switch {
	case req.ImageURL != "" && req.ImageData != "":
		return nil, opts, "", errors.New(errors.ErrCodeInvalidInput, "set image_url or image_data, not both")
	case req.ImageURL != "":
		if err := errors.ValidateImageURL(req.ImageURL); err != nil {
			return nil, opts, "", err
		}
		data, err := s.runner.Loader.Bytes(r.Context(), req.ImageURL)
		return data, opts, pipeline.BaseName(req.ImageURL), err
	case strings.HasPrefix(req.ImageData, "data:"):
		data, err := s.runner.Loader.Bytes(r.Context(), req.ImageData)
		return data, opts, pipeline.DefaultBaseName, err
	case req.ImageData != "":
		data, err := base64.StdEncoding.DecodeString(req.ImageData)
		if err != nil {
			return nil, opts, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "image_data is not base64")
		}
		return data, opts, pipeline.DefaultBaseName, nil
	default:
		return nil, opts, pipeline.DefaultBaseName, nil
	}
}

func (s *Server) parseMultipart(r *http.Request, opts pipeline.Options) ([]byte, pipeline.Options, string, error) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		return nil, opts, "", err
	}
	if raw := r.FormValue("options"); raw != "" {
		if err := decodeOptions(json.RawMessage(raw), &opts); err != nil {
			return nil, opts, "", err
		}
	}
	if v := r.FormValue("background"); v != "" {
		opts.Background = v
	}
	if v := r.FormValue("format"); v != "" {
		opts.Format = v
	}

	file, hdr, err := r.FormFile("image")
	switch {
	case stderrors.Is(err, http.ErrMissingFile):
		return nil, opts, pipeline.DefaultBaseName, nil
	case err != nil:
		return nil, opts, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read image part")
	}
	defer file.Close()
	if hdr.Size > s.cfg.MaxUploadBytes {
		return nil, opts, "", errors.New(errors.ErrCodeTooLarge, "image exceeds %d bytes", s.cfg.MaxUploadBytes)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, opts, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read image part")
	}
	return data, opts, pipeline.BaseName(hdr.Filename), nil
}

// decodeOptions overlays raw JSON options on opts. The source is never
// taken from a request: a path there would read server files.
func decodeOptions(raw json.RawMessage, opts *pipeline.Options) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, opts); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	opts.Source = ""
	return nil
}

// bodyError maps body read failures to coded errors.
func bodyError(err error) error {
	var tooBig *http.MaxBytesError
	switch {
	case errors.GetCode(err) != "":
		return err
	case stderrors.As(err, &tooBig):
		return errors.Wrap(errors.ErrCodeTooLarge, err, "request body exceeds %d bytes", tooBig.Limit)
	default:
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed request body")
	}
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
