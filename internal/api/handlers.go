package api

import (
	"context"
	"net/http"
	"time"

	"template-builder/internal/common/errors"
	"template-builder/internal/models"

	"github.com/go-chi/chi/v5"
)

type previewResponse struct {
	TemplateID string                             `json:"templateId"`
	Version    string                             `json:"version"`
	Components []models.ComponentGenerationResult `json:"components"`
	Skipped    []models.SkippedComponent          `json:"skipped"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}
	s.writeJSON(w, status, report)
}

func (s *Server) createBuild(w http.ResponseWriter, r *http.Request) {
	var opts models.BuildOptions
	if err := decodeJSON(r, &opts); err != nil {
		s.writeError(w, http.StatusBadRequest, string(errors.ErrCodeValidationFailed), "invalid request body: "+err.Error())
		return
	}

	res := s.service.BuildTemplate(r.Context(), opts)
	if res.Success {
		s.writeJSON(w, http.StatusCreated, res)
		return
	}
	s.writeJSON(w, errors.HTTPStatus(errors.ErrorCode(res.ErrorKind)), res)
}

func (s *Server) getBuild(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.GetBuildStatus(r.Context(), chi.URLParam(r, "buildId"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) listTemplateBuilds(w http.ResponseWriter, r *http.Request) {
	builds, err := s.service.GetTemplateBuilds(r.Context(), chi.URLParam(r, "templateId"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, builds)
}

func (s *Server) previewComponents(w http.ResponseWriter, r *http.Request) {
	gen, err := s.service.PreviewTemplate(r.Context(), chi.URLParam(r, "templateId"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	resp := previewResponse{
		TemplateID: gen.Template.ID,
		Version:    gen.Template.Version,
		Components: gen.Results,
		Skipped:    gen.Skipped,
	}
	if resp.Components == nil {
		resp.Components = []models.ComponentGenerationResult{}
	}
	if resp.Skipped == nil {
		resp.Skipped = []models.SkippedComponent{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}
