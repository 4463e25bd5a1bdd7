package httpcontroller

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oceanecho/oceanecho/internal/analysis"
	"github.com/oceanecho/oceanecho/internal/logger"
	"github.com/oceanecho/oceanecho/internal/samples"
)

const noInputNotice = "Upload at least one audio file or select a sample, then press Predict."

// initRoutes registers all routes. Nothing is processed until a predict
// request arrives.
func (s *Server) initRoutes() {
	var predictMiddleware []echo.MiddlewareFunc
	if rl := s.rateLimiter(); rl != nil {
		predictMiddleware = append(predictMiddleware, rl)
	}

	s.Echo.GET("/", s.handleIndex)
	s.Echo.POST("/predict", s.handlePredictForm, predictMiddleware...)
	s.Echo.GET("/media/samples/:name", s.serveSample)
	s.Echo.GET("/media/uploads/:id", s.serveUpload)

	api := s.Echo.Group("/api/v1")
	api.GET("/samples", s.listSamples)
	api.POST("/predict", s.handlePredictAPI, predictMiddleware...)
	api.GET("/health", s.health)

	if s.Metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.Render(http.StatusOK, "index", s.pageData(c))
}

// handlePredictForm runs the batch for the HTML form and renders one card per file.
func (s *Server) handlePredictForm(c echo.Context) error {
	data := s.pageData(c)

	inputs, selected, err := s.collectInputs(c)
	for _, name := range selected {
		data.Selected[name] = true
	}
	if err != nil {
		data.Notice = httpErrorMessage(err)
		return c.Render(httpErrorStatus(err), "index", data)
	}
	if len(inputs) == 0 {
		data.Notice = noInputNotice
		return c.Render(http.StatusOK, "index", data)
	}

	data.Report = s.Processor.ProcessBatch(c.Request().Context(), inputs)
	return c.Render(http.StatusOK, "index", data)
}

// handlePredictAPI runs the batch and returns the report as JSON.
func (s *Server) handlePredictAPI(c echo.Context) error {
	inputs, _, err := s.collectInputs(c)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files uploaded and no samples selected")
	}
	return c.JSON(http.StatusOK, s.Processor.ProcessBatch(c.Request().Context(), inputs))
}

// collectInputs stores uploads and resolves selected samples, uploads first.
// It also returns the selected sample names so the form can keep them.
func (s *Server) collectInputs(c echo.Context) ([]analysis.Input, []string, error) {
	var (
		files    []*multipart.FileHeader
		selected []string
	)

	form, err := c.MultipartForm()
	switch {
	case err == nil:
		files = form.File["files"]
		selected = form.Value["samples"]
	case errors.Is(err, http.ErrNotMultipart):
		params, perr := c.FormParams()
		if perr != nil {
			return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form").SetInternal(perr)
		}
		selected = params["samples"]
	default:
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid upload").SetInternal(err)
	}

	for _, fh := range files {
		if !s.Samples.Accepts(fh.Filename) {
			return nil, selected, echo.NewHTTPError(http.StatusUnsupportedMediaType,
				fmt.Sprintf("%s: unsupported file type %q", filepath.Base(fh.Filename), filepath.Ext(fh.Filename)))
		}
	}

	inputs := make([]analysis.Input, 0, len(files)+len(selected))
	for _, fh := range files {
		u, err := s.Uploads.Save(fh)
		if err != nil {
			return nil, selected, echo.NewHTTPError(http.StatusInternalServerError, "failed to store upload").SetInternal(err)
		}
		inputs = append(inputs, analysis.Input{
			Name: u.Name,
			Path: u.Path,
			URL:  "/media/uploads/" + u.ID,
		})
	}

	for _, name := range selected {
		path, err := s.Samples.Resolve(name)
		if err != nil {
			if errors.Is(err, samples.ErrNotFound) {
				return nil, selected, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown sample %q", name))
			}
			return nil, selected, echo.NewHTTPError(http.StatusInternalServerError, "failed to read sample library").SetInternal(err)
		}
		inputs = append(inputs, analysis.Input{
			Name: name,
			Path: path,
			URL:  "/media/samples/" + url.PathEscape(name),
		})
	}

	s.log.Debug("predict request",
		logger.Int("uploads", len(files)),
		logger.Int("samples", len(selected)))
	return inputs, selected, nil
}

func (s *Server) serveSample(c echo.Context) error {
	path, err := s.Samples.Resolve(c.Param("name"))
	if err != nil {
		if errors.Is(err, samples.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "sample not found")
		}
		return err
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return c.File(path)
}

func (s *Server) serveUpload(c echo.Context) error {
	u, ok := s.Uploads.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "upload not found or expired")
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Inline(u.Path, u.Name)
}

func (s *Server) listSamples(c echo.Context) error {
	list, err := s.Samples.List()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"samples":    list,
		"extensions": s.Samples.Extensions(),
	})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
		"uploads": s.Uploads.Len(),
	})
}

func httpErrorStatus(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func httpErrorMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}
