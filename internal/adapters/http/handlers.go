package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

const multipartMemory = 8 << 20

type themeResponse struct {
	Preference domain.ThemePreference `json:"preference"`
	Resolved   domain.ThemePreference `json:"resolved"`
}

type statsResponse struct {
	Total              int                        `json:"total"`
	ByCategory         map[domain.Category]int    `json:"by_category"`
	ByFormatClass      map[domain.FormatClass]int `json:"by_format_class"`
	Classified         int                        `json:"classified"`
	ClassifiedPercent  float64                    `json:"classified_percent"`
	DistinctCategories int                        `json:"distinct_categories"`
}

func (rt *Router) openSession(w http.ResponseWriter, r *http.Request) {
	info, err := rt.sessions.Open(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (rt *Router) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := rt.sessions.Close(r.Context(), r.PathValue("sessionId")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) getTheme(w http.ResponseWriter, r *http.Request) {
	systemDark, err := bindSystemDark(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	pref, err := rt.sessions.Theme(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themeResponse{Preference: pref, Resolved: pref.Resolve(systemDark)})
}

func (rt *Router) setTheme(w http.ResponseWriter, r *http.Request) {
	systemDark, err := bindSystemDark(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode theme", fmt.Errorf("invalid json: %w", err)))
		return
	}
	pref, err := domain.ParseThemePreference(req.Theme)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := rt.sessions.SetTheme(r.Context(), r.PathValue("sessionId"), pref); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themeResponse{Preference: pref, Resolved: pref.Resolve(systemDark)})
}

func (rt *Router) appendDocuments(w http.ResponseWriter, r *http.Request) {
	files, err := rt.decodeFiles(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	docs, err := rt.ingest.Append(r.Context(), r.PathValue("sessionId"), files)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"documents": docs})
}

// decodeFiles accepts either a JSON descriptor list or a multipart form with repeated
// "files" parts. Only names and sizes are kept.
func (rt *Router) decodeFiles(w http.ResponseWriter, r *http.Request) ([]domain.FileDescriptor, error) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)

	mediaType := "application/json"
	if raw := r.Header.Get("Content-Type"); raw != "" {
		parsed, _, err := mime.ParseMediaType(raw)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "decode upload", err)
		}
		mediaType = parsed
	}

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "decode upload", err)
		}
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				rt.logger.Warn("multipart_cleanup_failed", zap.Error(err))
			}
		}()

		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "decode upload", errors.New("multipart field 'files' is required"))
		}
		files := make([]domain.FileDescriptor, 0, len(headers))
		for _, header := range headers {
			files = append(files, domain.FileDescriptor{Name: header.Filename, SizeBytes: header.Size})
		}
		return files, nil
	case "application/json":
		var req struct {
			Files []domain.FileDescriptor `json:"files"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "decode upload", fmt.Errorf("invalid json: %w", err))
		}
		return req.Files, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode upload", fmt.Errorf("unsupported content type %q", mediaType))
	}
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	params, err := bindListParams(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	sessionID := r.PathValue("sessionId")

	switch params.group {
	case "":
		docs, err := rt.browser.List(r.Context(), sessionID, params.query)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
	case groupByFormat:
		groups, err := rt.browser.ListGrouped(r.Context(), sessionID, params.query)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
	default:
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "list documents", fmt.Errorf("unknown grouping %q", params.group)))
	}
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.browser.GetDocument(r.Context(), r.PathValue("sessionId"), r.PathValue("documentId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) listFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := rt.browser.Folders(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

func (rt *Router) getFolder(w http.ResponseWriter, r *http.Request) {
	query, err := bindFolderQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	class := domain.FormatClass(r.PathValue("formatClass"))

	docs, err := rt.browser.Folder(r.Context(), r.PathValue("sessionId"), class, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"format_class": class,
		"label":        class.Label(),
		"documents":    docs,
	})
}

func (rt *Router) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.browser.Stats(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Total:              stats.Total,
		ByCategory:         stats.ByCategory,
		ByFormatClass:      stats.ByFormatClass,
		Classified:         stats.Classified(),
		ClassifiedPercent:  stats.ClassifiedPercent(),
		DistinctCategories: stats.DistinctCategories(),
	})
}

func (rt *Router) exportDocuments(w http.ResponseWriter, r *http.Request) {
	params, err := bindListParams(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	contentType, err := rt.browser.Export(r.Context(), r.PathValue("sessionId"), params.query, &buf)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		rt.logger.Warn("export_write_failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
}
