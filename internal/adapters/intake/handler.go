// Package intake provides the HTTP surface for specimen record submission,
// identifier preview, and record retrieval.
package intake

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dentalatlas/internal/blob"
	"dentalatlas/internal/core"
	"dentalatlas/pkg/domain"
)

// Service is the intake surface consumed by the handler.
type Service interface {
	PreviewIdentifier(ctx context.Context, fdiCode string, dentition core.Dentition, arch core.Arch, side core.Side) (core.Preview, error)
	Submit(ctx context.Context, sub core.Submission) (core.SpecimenRecord, core.Result, error)
	ListRecords() []core.SpecimenRecord
	RecentRecords(n int) []core.SpecimenRecord
	FindByUSID(usid string) (core.SpecimenRecord, bool)
	RowCount() int
	OpenMedia(ctx context.Context, key string) (blob.Object, io.ReadCloser, error)
	MediaForRecord(ctx context.Context, usid string) ([]blob.Object, error)
}

// Handler provides HTTP access to the intake service.
type Handler struct {
	Service Service
}

// NewHandler constructs an intake HTTP handler.
func NewHandler(s Service) *Handler {
	return &Handler{Service: s}
}

// maxSubmissionBytes bounds the in-memory portion of a multipart submission.
const maxSubmissionBytes = 64 << 20

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "intake service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/healthz":
		h.handleHealth(w, r)
	case r.Method == http.MethodGet && path == "/api/v1/records":
		h.handleList(w, r)
	case r.Method == http.MethodPost && path == "/api/v1/records":
		h.handleSubmit(w, r)
	case r.Method == http.MethodGet && path == "/api/v1/records/recent":
		h.handleRecent(w, r)
	case r.Method == http.MethodGet && path == "/api/v1/records/preview":
		h.handlePreview(w, r)
	case r.Method == http.MethodGet && path == "/api/v1/records/export":
		h.handleExport(w, r)
	case r.Method == http.MethodGet && path == "/api/v1/vocab":
		h.handleVocab(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/api/v1/records/"):
		h.handleGet(w, r, strings.TrimPrefix(path, "/api/v1/records/"))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/media/"):
		h.handleMedia(w, r, strings.TrimPrefix(path, "/media/"))
	case path == "/api/v1/records" || path == "/api/v1/records/recent" ||
		path == "/api/v1/records/preview" || path == "/api/v1/records/export" ||
		path == "/api/v1/vocab":
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"row_count": h.Service.RowCount(),
	})
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	records := h.Service.ListRecords()
	writeJSON(w, http.StatusOK, map[string]any{
		"records":   records,
		"row_count": h.Service.RowCount(),
	})
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "n must be a non-negative integer")
			return
		}
		n = parsed
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": h.Service.RecentRecords(n)})
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	preview, err := h.Service.PreviewIdentifier(r.Context(),
		q.Get("fdi_code"),
		core.Dentition(q.Get("dentition")),
		core.Arch(q.Get("arch")),
		core.Side(q.Get("side")),
	)
	if err != nil {
		var verr core.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"preview": preview})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, usid string) {
	record, ok := h.Service.FindByUSID(usid)
	if !ok {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	media, err := h.Service.MediaForRecord(r.Context(), usid)
	if err != nil {
		writeError(w, http.StatusBadGateway, "media store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": record, "media": media})
}

// handleMedia serves stored media content. Links minted by the filesystem
// driver point here, so a persisted record link stays retrievable for as
// long as the server runs. The key arrives already decoded via r.URL.Path.
func (h *Handler) handleMedia(w http.ResponseWriter, r *http.Request, key string) {
	obj, content, err := h.Service.OpenMedia(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "media not found")
		return
	}
	defer func() { _ = content.Close() }()
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, content)
}

type submitResponse struct {
	Record   core.SpecimenRecord `json:"record"`
	Warnings []core.Violation    `json:"warnings,omitempty"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart/form-data submission")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	sub := core.Submission{
		Collector:      r.FormValue("collector"),
		Source:         r.FormValue("source"),
		PatientGender:  core.PatientGender(r.FormValue("patient_gender")),
		MedicalHistory: r.FormValue("medical_history"),
		Dentition:      core.Dentition(r.FormValue("dentition")),
		Arch:           core.Arch(r.FormValue("arch")),
		Side:           core.Side(r.FormValue("side")),
		ToothClass:     core.ToothClass(r.FormValue("tooth_class")),
		FDICode:        r.FormValue("fdi_code"),
		ImageLink:      r.FormValue("image_link"),
		CBCTLink:       r.FormValue("cbct_link"),
	}

	var err error
	if sub.CrownHeightMM, err = parseMeasurement(r.FormValue("crown_height_mm")); err != nil {
		writeError(w, http.StatusBadRequest, "crown_height_mm must be numeric")
		return
	}
	if sub.RootLengthMM, err = parseMeasurement(r.FormValue("root_length_mm")); err != nil {
		writeError(w, http.StatusBadRequest, "root_length_mm must be numeric")
		return
	}

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	if upload, file, err := formUpload(r, "image"); err != nil {
		writeError(w, http.StatusBadRequest, "unreadable image upload")
		return
	} else if upload != nil {
		sub.Image = upload
		closers = append(closers, file)
	}
	if upload, file, err := formUpload(r, "cbct"); err != nil {
		writeError(w, http.StatusBadRequest, "unreadable cbct upload")
		return
	} else if upload != nil {
		sub.CBCT = upload
		closers = append(closers, file)
	}

	record, result, err := h.Service.Submit(r.Context(), sub)
	if err != nil {
		var verr core.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		var rve core.RuleViolationError
		if errors.As(err, &rve) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":      rve.Error(),
				"violations": rve.Result.Violations,
			})
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		Record:   record,
		Warnings: result.Warnings(),
	})
}

// exportColumns fixes the CSV column order to match the appended table layout.
var exportColumns = []string{
	"usid", "collector", "source", "patient_gender", "medical_history",
	"collected_at", "dentition", "arch", "side", "tooth_class", "fdi_code",
	"crown_height_mm", "root_length_mm", "image", "cbct",
}

func (h *Handler) handleExport(w http.ResponseWriter, _ *http.Request) {
	filename := fmt.Sprintf("dental-atlas-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(exportColumns); err != nil {
		return
	}
	for _, rec := range h.Service.ListRecords() {
		row := []string{
			rec.USID,
			rec.Collector,
			rec.Source,
			string(rec.PatientGender),
			rec.MedicalHistory,
			rec.CollectedAt.UTC().Format(time.RFC3339),
			string(rec.Dentition),
			string(rec.Arch),
			string(rec.Side),
			string(rec.ToothClass),
			rec.FDICode,
			strconv.FormatFloat(rec.CrownHeightMM, 'g', -1, 64),
			strconv.FormatFloat(rec.RootLengthMM, 'g', -1, 64),
			rec.Image.Link,
			rec.CBCT.Link,
		}
		if err := writer.Write(row); err != nil {
			return
		}
	}
}

// Select-box vocabularies served to form clients.
var (
	collectors = []string{
		"Dr. Doaa", "Dr. Fawzy", "Dr. Liala", "Dr. Mahmoud", "Dr. Aya",
		"Dr. Sohila", "Dr. Enas", "Dr. Sara", "Dr. Eman",
	}
	sources = []string{"University Hospital", "Private Clinic"}
)

func (h *Handler) handleVocab(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"collectors": collectors,
		"sources":    sources,
		"dentitions": []domain.Dentition{domain.DentitionPermanent, domain.DentitionDeciduous},
		"arches":     []domain.Arch{domain.ArchMaxillary, domain.ArchMandibular},
		"sides":      []domain.Side{domain.SideRight, domain.SideLeft},
		"tooth_classes": []domain.ToothClass{
			domain.ToothIncisor, domain.ToothCanine, domain.ToothPremolar, domain.ToothMolar,
		},
		"patient_genders": []domain.PatientGender{
			domain.GenderMale, domain.GenderFemale, domain.GenderUnknown,
		},
	})
}

func parseMeasurement(raw string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

func formUpload(r *http.Request, field string) (*core.MediaUpload, io.Closer, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &core.MediaUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}, file, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
