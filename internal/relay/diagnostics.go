package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"voxrelay/internal/registry"
)

// Diagnostics is the relay's read-only status surface: it never mutates
// the registry, matching the spec's "no auth" posture by having nothing
// worth protecting.
type Diagnostics struct {
	echo *echo.Echo
	reg  *registry.Registry
}

// NewDiagnostics constructs the Echo app exposing /healthz and /status.
func NewDiagnostics(reg *registry.Registry) *Diagnostics {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	d := &Diagnostics{echo: e, reg: reg}
	e.GET("/healthz", d.handleHealthz)
	e.GET("/status", d.handleStatus)
	return d
}

func (d *Diagnostics) handleHealthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

type statusResponse struct {
	Endpoints []registry.Snapshot `json:"endpoints"`
	Count     int                 `json:"count"`
}

func (d *Diagnostics) handleStatus(c echo.Context) error {
	snaps := d.reg.Snapshots()
	return c.JSON(http.StatusOK, statusResponse{
		Endpoints: snaps,
		Count:     len(snaps),
	})
}

// Run starts the diagnostics server on addr and blocks until ctx is
// canceled or startup fails.
func (d *Diagnostics) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		err := d.echo.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("diagnostics server shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.echo.Shutdown(shutCtx)
		return nil
	}
}
