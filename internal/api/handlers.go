package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/timeline/pkg/buildinfo"
	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/errors"
	"github.com/matzehuels/timeline/pkg/pipeline"
	"github.com/matzehuels/timeline/pkg/store"
	"github.com/matzehuels/timeline/pkg/timeline"
)

// CacheHeader reports "hit" or "miss" for layout responses.
const CacheHeader = "X-Cache"

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type zoomRequest struct {
	Document json.RawMessage `json:"document"`
	pipeline.ZoomRequest
}

type putResponse struct {
	ID     string `json:"id"`
	Events int    `json:"events"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readDocument(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	res, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), doc, pipeline.Options{Refresh: refresh})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeResult(w, r, res, hit)
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode zoom request"))
		return
	}
	if len(req.Document) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "zoom request has no document"))
		return
	}
	if err := errors.ValidateBucketID(req.Bucket); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := timeline.Parse(req.Document, timeline.FormatJSON)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	z, err := s.runner.Zoom(r.Context(), doc, req.ZoomRequest)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, z)
}

func (s *Server) handlePutTimeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.readDocument(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if doc.ID != "" && doc.ID != id {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "document id %q does not match %q", doc.ID, id))
		return
	}
	doc.ID = id
	if err := s.store.Put(r.Context(), doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, putResponse{ID: id, Events: len(doc.Events)})
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, doc)
}

func (s *Server) handleDeleteTimeline(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRelayout(w http.ResponseWriter, r *http.Request) {
	res, err := store.Relayout(r.Context(), s.store, s.runner, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleGeometry(w http.ResponseWriter, r *http.Request) {
	geo, err := s.store.Geometry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if geo == nil {
		geo = []layout.Placement{}
	}
	writeJSON(w, r, http.StatusOK, geo)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if err := errors.ValidatePath(rel); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := timeline.ReadFile(filepath.Join(s.docsDir, filepath.FromSlash(rel)))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), doc, pipeline.Options{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeResult(w, r, res, hit)
}

func writeResult(w http.ResponseWriter, r *http.Request, res layout.Result, hit bool) {
	if hit {
		w.Header().Set(CacheHeader, "hit")
	} else {
		w.Header().Set(CacheHeader, "miss")
	}
	writeJSON(w, r, http.StatusOK, res)
}

// readDocument decodes the request body in the format the request names.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*timeline.Document, error) {
	f, err := requestFormat(r)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	return timeline.Parse(data, f)
}

func requestFormat(r *http.Request) (timeline.Format, error) {
	if name := r.URL.Query().Get("format"); name != "" {
		return timeline.ParseFormat(name)
	}
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return timeline.FormatJSON, nil
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return timeline.FormatYAML, nil
	case "application/toml":
		return timeline.FormatTOML, nil
	}
	return timeline.FormatJSON, nil
}
