package host

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"github.com/worklens/deskshell/internal/buildmode"
	"github.com/worklens/deskshell/internal/host/middleware"
	"github.com/worklens/deskshell/internal/infrastructure/config"
	"github.com/worklens/deskshell/internal/infrastructure/logging"
)

// Window is the main application window. The webview chrome itself is
// the platform's business; the host's job is to put the front-end
// somewhere the webview can load it. In release builds that is a
// loopback listener serving the embedded bundle; in development builds
// with a configured dev server, it is the dev server's URL.
type Window struct {
	label  string
	title  string
	width  int
	height int

	addr      string
	url       string
	engine    *gin.Engine
	srv       *http.Server
	presented atomic.Bool
	log       *logging.Logger
}

// newWindow builds the main window from the manifest. A nil assets FS
// is only valid when a dev-server URL is configured.
func newWindow(m *config.Manifest, assets fs.FS, log *logging.Logger) *Window {
	w := &Window{
		label:  uuid.NewString(),
		title:  m.Window.Title,
		width:  m.Window.Width,
		height: m.Window.Height,
		log:    log,
	}

	if !buildmode.IsRelease && m.Build.DevURL != "" {
		w.url = m.Build.DevURL
		return w
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	engine.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
	engine.NoRoute(gin.WrapH(gzhttp.GzipHandler(assetHandler(assets))))

	w.engine = engine
	w.addr = fmt.Sprintf("%s:%d", m.Window.Host, m.Window.Port)
	return w
}

// Present makes the window's content reachable and marks the window
// visible. Called exactly once, after setup completes.
func (w *Window) Present() error {
	if w.engine == nil {
		// Dev server hosts the front-end; nothing to serve.
		w.presented.Store(true)
		w.log.Info("Main window presented",
			zap.String("label", w.label),
			zap.String("title", w.title),
			zap.String("url", w.url),
		)
		return nil
	}

	ln, err := net.Listen("tcp", w.addr)
	if err != nil {
		return fmt.Errorf("failed to bind window listener: %w", err)
	}

	w.url = "http://" + ln.Addr().String()
	w.srv = &http.Server{Handler: w.engine}

	go func() {
		if err := w.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.log.Error("Window asset server failed", zap.Error(err))
		}
	}()

	w.presented.Store(true)
	w.log.Info("Main window presented",
		zap.String("label", w.label),
		zap.String("title", w.title),
		zap.String("url", w.url),
		zap.Int("width", w.width),
		zap.Int("height", w.height),
	)
	return nil
}

// URL returns the address the webview loads the front-end from.
func (w *Window) URL() string {
	return w.url
}

// Presented reports whether the window has been made visible.
func (w *Window) Presented() bool {
	return w.presented.Load()
}

// Close drains and stops the window's asset server.
func (w *Window) Close(ctx context.Context) error {
	if w.srv == nil {
		return nil
	}
	return w.srv.Shutdown(ctx)
}
