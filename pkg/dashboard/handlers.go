package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/filter"
	"github.com/David-Botos/form-ingress/pkg/model"
	"github.com/David-Botos/form-ingress/pkg/normalizer"
	"github.com/David-Botos/form-ingress/pkg/report"
	"github.com/David-Botos/form-ingress/pkg/sheet"
)

// errBadRequest marks query errors
var errBadRequest = errors.New("bad request")

// Marker is one country circle on the map
type Marker struct {
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Count   int     `json:"count"`
	Radius  float64 `json:"radius"`
	Popup   string  `json:"popup"`
}

// Choices are the dropdown options and the selectable period
type Choices struct {
	Countries []string `json:"countries"`
	Packs     []string `json:"packs"`
	Payments  []string `json:"payments"`
	First     string   `json:"first,omitempty"` // YYYY-MM-DD
	Last      string   `json:"last,omitempty"`
}

type pageData struct {
	Total   int
	Columns int
	Choices Choices
	Error   string
}

func filterConfig(c *gin.Context) (filter.Config, error) {
	start, err := filter.ParseDate(c.Query("start"))
	if err != nil {
		return filter.Config{}, fmt.Errorf("%w: invalid start date %q", errBadRequest, c.Query("start"))
	}
	end, err := filter.ParseDate(c.Query("end"))
	if err != nil {
		return filter.Config{}, fmt.Errorf("%w: invalid end date %q", errBadRequest, c.Query("end"))
	}
	cfg := filter.Config{
		Start:   start,
		End:     end,
		Country: c.Query("country"),
		Pack:    c.Query("pack"),
		Payment: c.Query("payment"),
	}
	return cfg, cfg.Validate()
}

// view loads the table and applies the request filters. On failure the
// response is already written.
func (s *Server) view(c *gin.Context) (*model.Table, model.Roles, bool) {
	table, err := s.table()
	if err != nil {
		s.fail(c, http.StatusServiceUnavailable, err)
		return nil, model.Roles{}, false
	}
	cfg, err := filterConfig(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return nil, model.Roles{}, false
	}

	roles := normalizer.DetectRoles(table.Columns)
	view, err := filter.Apply(table, roles, cfg)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return nil, model.Roles{}, false
	}
	return view, roles, true
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("Rejected request", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleIndex(c *gin.Context) {
	table, err := s.table()
	if err != nil {
		s.logger.Error("Failed to load data", zap.Error(err))
		c.HTML(http.StatusServiceUnavailable, "index", pageData{
			Error: fmt.Sprintf("Impossible de charger les données: %v", err),
		})
		return
	}
	c.HTML(http.StatusOK, "index", pageData{
		Total:   table.Len(),
		Columns: len(table.Columns),
		Choices: choices(table),
	})
}

func (s *Server) handleView(c *gin.Context) {
	view, roles, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.Summarize(view, roles, s.opts.TopCountries))
}

// choices come from the unfiltered table so they never shrink
func choices(table *model.Table) Choices {
	roles := normalizer.DetectRoles(table.Columns)
	out := Choices{
		Countries: filter.Options(table, roles.Country),
		Packs:     filter.Options(table, columnIfPresent(table, model.ColPackType)),
		Payments:  filter.Options(table, columnIfPresent(table, model.ColPaymentMethod)),
	}
	if first, last, ok := filter.DateBounds(table, roles.Timestamp); ok {
		out.First = first.Format("2006-01-02")
		out.Last = last.Format("2006-01-02")
	}
	return out
}

func columnIfPresent(table *model.Table, column string) string {
	if table.HasColumn(column) {
		return column
	}
	return ""
}

func (s *Server) handleOptions(c *gin.Context) {
	table, err := s.table()
	if err != nil {
		s.fail(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, choices(table))
}

func (s *Server) handleMap(c *gin.Context) {
	view, roles, ok := s.view(c)
	if !ok {
		return
	}
	summary := report.Summarize(view, roles, mapCountries)
	c.JSON(http.StatusOK, gin.H{"markers": markers(summary.Countries)})
}

func (s *Server) handleRefresh(c *gin.Context) {
	s.Refresh()
	s.logger.Info("Cache cleared")
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

func (s *Server) handleChart(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("name"), ".png")
	if !isChart(name) {
		s.fail(c, http.StatusNotFound, fmt.Errorf("unknown chart %q", name))
		return
	}
	view, roles, ok := s.view(c)
	if !ok {
		return
	}

	img, err := renderChart(name, report.Summarize(view, roles, s.opts.TopCountries))
	if errors.Is(err, errNoData) {
		s.fail(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

var exportTypes = map[sheet.Format]string{
	sheet.FormatCSV:  "text/csv; charset=utf-8",
	sheet.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// handleExport serializes the filtered view. Failures are reported to the
// client and the server keeps serving.
func (s *Server) handleExport(c *gin.Context) {
	format := sheet.Format(strings.ToLower(c.Param("format")))
	contentType, ok := exportTypes[format]
	if !ok {
		s.fail(c, http.StatusNotFound, fmt.Errorf("%w: %s", sheet.ErrUnsupportedFormat, format))
		return
	}
	view, _, ok := s.view(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case sheet.FormatCSV:
		err = report.WriteCSV(&buf, view)
	case sheet.FormatXLSX:
		err = report.WriteXLSX(&buf, view)
	}
	s.metrics.RecordExport(string(format), err)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, fmt.Errorf("export failed: %w", err))
		return
	}

	name := fmt.Sprintf("formulaire_filtre_%s.%s", time.Now().Format("20060102_150405"), format)
	s.logger.Info("Exported view", zap.String("format", string(format)), zap.Int("rows", view.Len()))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
