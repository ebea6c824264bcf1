package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"agrovet/internal/document"
	"agrovet/internal/logger"
	"agrovet/internal/metrics"
	"agrovet/internal/ocr"
	"agrovet/internal/ratios"
	"agrovet/pkg/models"
	"agrovet/pkg/services"
)

type metricJSON struct {
	Key   metrics.Key `json:"key"`
	Label string      `json:"label"`
	Value float64     `json:"value"`
}

type documentResponse struct {
	Source     string         `json:"source"`
	Kind       document.Kind  `json:"kind"`
	PageCount  int            `json:"page_count"`
	Confidence float32        `json:"confidence"`
	Text       string         `json:"text,omitempty"`
	Metrics    []metricJSON   `json:"metrics"`
	KPIs       []metricJSON   `json:"kpis"`
	Completed  []metrics.Key  `json:"completed,omitempty"`
	Hints      []metrics.Hint `json:"hints,omitempty"`
	Warning    string         `json:"warning,omitempty"`
}

func toMetricJSON(set metrics.Set) []metricJSON {
	out := make([]metricJSON, 0, set.Len())
	for _, e := range set.Entries() {
		out = append(out, metricJSON{Key: e.Key, Label: e.Key.Label(), Value: e.Value})
	}
	return out
}

// handleDocument runs the document pipeline on the multipart "file" field.
// ?format=csv returns the metrics CSV, ?text=true includes the OCR text.
func (s *Server) handleDocument(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing upload: send the report in the multipart field \"file\"."})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the uploaded file."})
		return
	}
	defer f.Close()

	doc, err := document.Load(fh.Filename, f, s.maxUpload)
	if err != nil {
		status, msg := uploadError(err)
		log.Warn().Err(err).Str("file", fh.Filename).Msg("Upload rejected")
		c.JSON(status, gin.H{"error": msg})
		return
	}

	if s.processor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Document processing is not configured."})
		return
	}

	analysis, err := s.processor.Process(ctx, doc)
	if err != nil {
		status, body := processingError(err)
		log.Warn().Err(err).Str("file", doc.Name).Int("status", status).Msg("Document processing failed")
		c.JSON(status, body)
		return
	}

	if c.Query("format") == "csv" {
		if analysis.Empty() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"warning": document.NoMetricsMessage})
			return
		}
		if s.exporter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report export is not configured."})
			return
		}
		artifact, err := s.exporter.ExportMetrics(analysis.Combined())
		if err != nil {
			log.Error().Err(err).Msg("CSV export failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not export the metrics."})
			return
		}
		sendArtifact(c, artifact)
		return
	}

	resp := documentResponse{
		Source:    analysis.Source,
		Kind:      analysis.Kind,
		Metrics:   toMetricJSON(analysis.Metrics),
		KPIs:      toMetricJSON(analysis.KPIs),
		Completed: analysis.Completed,
		Hints:     analysis.Hints,
	}
	if analysis.OCR != nil {
		resp.PageCount = analysis.OCR.PageCount
		resp.Confidence = analysis.OCR.Confidence
		if c.Query("text") == "true" {
			resp.Text = analysis.OCR.Text
		}
	}
	if analysis.Empty() {
		resp.Warning = document.NoMetricsMessage
	}
	c.JSON(http.StatusOK, resp)
}

func uploadError(err error) (int, string) {
	switch {
	case errors.Is(err, document.ErrEmptyFile):
		return http.StatusBadRequest, "The uploaded file is empty."
	case errors.Is(err, document.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "The uploaded file is too large."
	case errors.Is(err, document.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "Unsupported file format. Upload a PDF, PNG or JPG file."
	default:
		return http.StatusBadRequest, "Could not read the uploaded file."
	}
}

func processingError(err error) (int, gin.H) {
	switch {
	case document.IsWarning(err):
		return http.StatusUnprocessableEntity, gin.H{"warning": document.WarningMessage(err)}
	case errors.Is(err, ocr.ErrEmptyDocument):
		return http.StatusUnprocessableEntity, gin.H{"warning": "No text was recognized in the document. Check the scan quality."}
	case errors.Is(err, document.ErrTooManyPages), errors.Is(err, ocr.ErrTooManyPages):
		return http.StatusUnprocessableEntity, gin.H{"error": "The PDF has too many pages."}
	case errors.Is(err, ocr.ErrInvalidImage), errors.Is(err, ocr.ErrInvalidPDF), errors.Is(err, ocr.ErrFileTooLarge):
		return http.StatusUnprocessableEntity, gin.H{"error": "The document could not be read. Upload a clearer PDF, PNG or JPG file."}
	case errors.Is(err, ocr.ErrInvalidConfiguration), errors.Is(err, ocr.ErrMissingCredentials):
		return http.StatusInternalServerError, gin.H{"error": "The OCR engine is not configured correctly."}
	default:
		return http.StatusBadGateway, gin.H{"error": "Text recognition failed. Try again later."}
	}
}

// FarmRecordRequest is the form or JSON body of the farm-record endpoints.
type FarmRecordRequest struct {
	FarmName          string `json:"farm_name" form:"farm_name"`
	Date              string `json:"date" form:"date"`
	TotalDams         int    `json:"total_dams" form:"total_dams"`
	EligibleDams      int    `json:"eligible_dams" form:"eligible_dams"`
	Inseminated       int    `json:"inseminated" form:"inseminated"`
	Pregnant          int    `json:"pregnant" form:"pregnant"`
	PositiveDiagnoses int    `json:"positive_diagnoses" form:"positive_diagnoses"`
	ExpectedCalvings  int    `json:"expected_calvings" form:"expected_calvings"`
	ActualCalvings    int    `json:"actual_calvings" form:"actual_calvings"`
	GestationalLosses int    `json:"gestational_losses" form:"gestational_losses"`
	RepeatServices    int    `json:"repeat_services" form:"repeat_services"`
	Notes             string `json:"notes" form:"notes"`
}

// Record converts the request into a farm record.
func (r FarmRecordRequest) Record() (models.FarmRecord, error) {
	var date time.Time
	if r.Date != "" {
		d, err := models.ParseDate(r.Date)
		if err != nil {
			return models.FarmRecord{}, err
		}
		date = d
	}
	return models.FarmRecord{
		FarmName:          r.FarmName,
		Date:              date,
		TotalDams:         r.TotalDams,
		EligibleDams:      r.EligibleDams,
		Inseminated:       r.Inseminated,
		Pregnant:          r.Pregnant,
		PositiveDiagnoses: r.PositiveDiagnoses,
		ExpectedCalvings:  r.ExpectedCalvings,
		ActualCalvings:    r.ActualCalvings,
		GestationalLosses: r.GestationalLosses,
		RepeatServices:    r.RepeatServices,
		Notes:             r.Notes,
	}, nil
}

// bindReport reads the record and computes its ratios, writing the error
// response itself when that fails.
func (s *Server) bindReport(c *gin.Context) (models.Report, bool) {
	var req FarmRecordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid farm record: " + err.Error()})
		return models.Report{}, false
	}

	record, err := req.Record()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid date %q: use YYYY-MM-DD or DD/MM/YYYY.", req.Date)})
		return models.Report{}, false
	}

	r, err := ratios.Calculate(record)
	if err != nil {
		var calcErr *ratios.CalculationError
		msg := "Não foi possível calcular os indicadores."
		if errors.As(err, &calcErr) {
			msg = calcErr.Message
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
		return models.Report{}, false
	}

	return models.Report{Record: record, Ratios: r}, true
}

func (s *Server) handleFarmRecord(c *gin.Context) {
	report, ok := s.bindReport(c)
	if !ok {
		return
	}

	values := report.Ratios.Values()
	for i := range values {
		values[i].Value = ratios.Round2(values[i].Value)
	}

	c.JSON(http.StatusOK, gin.H{
		"farm_name":  report.Record.FarmName,
		"date":       report.Record.DateString(),
		"ratios":     report.Ratios,
		"indicators": values,
	})
}

// handleReport renders and sends only the artifact of the given type.
func (s *Server) handleReport(mimeType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, ok := s.bindReport(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)

		if s.exporter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report export is not configured."})
			return
		}

		artifact, err := s.exporter.ExportFormat(ctx, report, mimeType)
		if err != nil {
			log.Error().Err(err).Str("format", mimeType).Msg("Report export failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate the report."})
			return
		}
		sendArtifact(c, artifact)
	}
}

func sendArtifact(c *gin.Context, a services.Artifact) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.FileName))
	c.Data(http.StatusOK, a.MIMEType, a.Data)
}
