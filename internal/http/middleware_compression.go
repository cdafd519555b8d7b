package httpx

import (
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware.
type CompressionConfig struct {
	Level   int // gzip level 1-9; 0 uses gzip.DefaultCompression
	MinSize int // Minimum response size to compress in bytes; 0 always compresses
	Logger  *slog.Logger

	writers *gzipWriterPool
}

// gzipWriterPool reuses gzip writers of a single level.
type gzipWriterPool struct {
	level int
	pool  sync.Pool
}

func newGzipWriterPool(level int) *gzipWriterPool {
	p := &gzipWriterPool{level: level}
	p.pool.New = func() any { return newGzipWriter(level) }
	return p
}

func (p *gzipWriterPool) get(w io.Writer) *gzip.Writer {
	gz, ok := p.pool.Get().(*gzip.Writer)
	if !ok {
		gz = newGzipWriter(p.level)
	}
	gz.Reset(w)
	return gz
}

func (p *gzipWriterPool) put(gz *gzip.Writer) {
	gz.Reset(io.Discard)
	p.pool.Put(gz)
}

func newGzipWriter(level int) *gzip.Writer {
	w, err := gzip.NewWriterLevel(io.Discard, level)
	if err != nil {
		return gzip.NewWriter(io.Discard)
	}
	return w
}

//nolint:gochecknoglobals // static read-only lookup
var compressibleTypes = map[string]bool{
	"text/html":              true,
	"text/css":               true,
	"text/plain":             true,
	"text/javascript":        true,
	"application/javascript": true,
	"application/json":       true,
	"image/svg+xml":          true,
}

// Compression returns a middleware that gzips responses when the client accepts
// gzip, the content type is compressible and the status carries a body.
// Event streams are never compressed.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	if cfg.Level == 0 {
		cfg.Level = gzip.DefaultCompression
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.writers == nil {
		cfg.writers = newGzipWriterPool(cfg.Level)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Accept-Encoding")
			gzw := &gzipResponseWriter{ResponseWriter: w, cfg: &cfg, request: r}
			next.ServeHTTP(gzw, r)
			gzw.finish()
		})
	}
}

// acceptsGzip checks if the client accepts gzip encoding, respecting q=0.
func acceptsGzip(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		part = strings.TrimSpace(part)
		encoding, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(encoding), "gzip") {
			continue
		}
		q := strings.ReplaceAll(params, " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}

func isCompressibleContentType(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return compressibleTypes[strings.ToLower(strings.TrimSpace(mediaType))]
}

// gzipResponseWriter decides whether to compress once the status and content
// type are known. With MinSize set, the decision waits until MinSize bytes are
// buffered; shorter bodies are sent uncompressed.
type gzipResponseWriter struct {
	http.ResponseWriter
	cfg           *CompressionConfig
	request       *http.Request
	gz            *gzip.Writer
	status        int
	headerWritten bool
	passthrough   bool
	pending       []byte
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	if w.headerWritten {
		return
	}
	w.headerWritten = true
	w.status = status

	h := w.Header()
	if status < 200 || status == http.StatusNoContent || status == http.StatusNotModified ||
		h.Get("Content-Encoding") != "" || !isCompressibleContentType(h.Get("Content-Type")) {
		w.passthrough = true
		w.ResponseWriter.WriteHeader(status)
		return
	}
	if w.cfg.MinSize <= 0 {
		w.startGzip()
	}
}

// startGzip commits the compressed response headers.
func (w *gzipResponseWriter) startGzip() {
	h := w.Header()
	h.Set("Content-Encoding", "gzip")
	h.Del("Content-Length")
	w.ResponseWriter.WriteHeader(w.status)
	w.gz = w.cfg.writers.get(w.ResponseWriter)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.passthrough {
		return w.ResponseWriter.Write(b)
	}
	if w.gz != nil {
		return w.gz.Write(b)
	}

	w.pending = append(w.pending, b...)
	if len(w.pending) < w.cfg.MinSize {
		return len(b), nil
	}
	if err := w.releasePending(); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (w *gzipResponseWriter) releasePending() error {
	w.startGzip()
	_, err := w.gz.Write(w.pending)
	w.pending = nil
	return err
}

// Flush implements http.Flusher for streaming support. Flushing commits a
// deferred response to compression.
func (w *gzipResponseWriter) Flush() {
	if w.headerWritten && !w.passthrough && w.gz == nil {
		if err := w.releasePending(); err != nil {
			w.cfg.Logger.ErrorContext(w.request.Context(), "writing gzip buffer failed", "error", err)
		}
	}
	if w.gz != nil {
		if err := w.gz.Flush(); err != nil {
			w.cfg.Logger.ErrorContext(w.request.Context(), "flushing gzip writer failed", "error", err)
		}
	}
	if err := http.NewResponseController(w.ResponseWriter).Flush(); err != nil {
		w.cfg.Logger.DebugContext(w.request.Context(), "flushing response failed", "error", err)
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *gzipResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *gzipResponseWriter) finish() {
	if !w.headerWritten || w.passthrough {
		return
	}
	if w.gz == nil {
		// Body stayed under MinSize.
		w.ResponseWriter.WriteHeader(w.status)
		if len(w.pending) > 0 {
			if _, err := w.ResponseWriter.Write(w.pending); err != nil {
				w.cfg.Logger.DebugContext(w.request.Context(), "writing response failed", "error", err)
			}
		}
		return
	}
	if err := w.gz.Close(); err != nil {
		w.cfg.Logger.ErrorContext(w.request.Context(), "closing gzip writer failed", "error", err)
	}
	w.cfg.writers.put(w.gz)
}
