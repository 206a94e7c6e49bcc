package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/geostack-labs/geoverify/internal/config"
	"github.com/geostack-labs/geoverify/internal/report"
	"github.com/geostack-labs/geoverify/internal/validate"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCheck returns a handler that runs one named check against the source
// selected by the request and responds with that check's report section.
func (s *Server) handleCheck(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, isDefault, err := s.requestConfig(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		assembled, err := s.assembled(r.Context(), cfg, isDefault)
		if err != nil {
			s.logger.Error("assembly failed", "check", name, "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		checker := validate.NewChecker(assembled.Features, validate.Options{
			Workers:    cfg.Checks.Workers,
			Geometries: true,
			Logger:     s.logger,
		})

		var payload any
		switch name {
		case validate.CheckValidity:
			res, err := checker.Validity(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			payload = report.NewInvalidShapes(res)
		case validate.CheckPointInPolygon:
			res, err := checker.PointInPolygon(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			payload = report.NewPointInPolygon(res)
		case validate.CheckOverlap:
			res, err := checker.Overlap(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			payload = report.NewOverlaps(res)
		case validate.CheckContainment:
			res, err := checker.ParentContainment(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			payload = report.NewContainment(res)
		}

		writeJSON(w, http.StatusOK, payload)
	}
}

// requestConfig derives the source configuration for one request. Without an
// input_type parameter the configured default source applies; with one, the
// request parameters describe the source in full.
func (s *Server) requestConfig(r *http.Request) (*config.Config, bool, error) {
	q := r.URL.Query()
	inputType := q.Get("input_type")
	if inputType == "" {
		return s.cfg, true, nil
	}

	cfg := *s.cfg
	cfg.Source = config.SourceConfig{Type: inputType}

	switch inputType {
	case "csv":
		cfg.Source.CSV.Dir = q.Get("path_to_csv")
		if cfg.Source.CSV.Dir == "" {
			return nil, false, fmt.Errorf("path_to_csv is required for input_type=csv")
		}
	case "postgres":
		cfg.Source.Postgres = s.cfg.Source.Postgres
		if v := q.Get("host"); v != "" {
			cfg.Source.Postgres.Host = v
		}
		if v := q.Get("port"); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return nil, false, fmt.Errorf("invalid port %q", v)
			}
			cfg.Source.Postgres.Port = port
		}
		if v := q.Get("database"); v != "" {
			cfg.Source.Postgres.Database = v
		}
		if v := q.Get("user"); v != "" {
			cfg.Source.Postgres.User = v
		}
		if v := q.Get("password"); v != "" {
			cfg.Source.Postgres.Password = v
		}
		if v := q.Get("staging_prefix"); v != "" {
			for _, prefix := range strings.Split(v, ",") {
				if prefix = strings.TrimSpace(prefix); prefix != "" {
					cfg.Source.StagingPrefixes = append(cfg.Source.StagingPrefixes, prefix)
				}
			}
		} else {
			cfg.Source.StagingPrefixes = nil
		}
	default:
		return nil, false, fmt.Errorf("unknown input_type %q (expected csv or postgres)", inputType)
	}

	return &cfg, false, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
