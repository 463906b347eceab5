package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/orbitalworks/demands-service/core"
	"github.com/orbitalworks/demands-service/internal/logging"
)

// maxUploadMemory bounds how much of a multipart upload is buffered in
// memory before spilling to disk.
const maxUploadMemory = 32 << 20

// scenarioFileField is the multipart form field carrying the scenario.
const scenarioFileField = "scenario_file"

// consumeResourcesField is the form/query parameter enabling consumption of
// existing resources during the analysis.
const consumeResourcesField = "consume_resources"

func (s *Server) handleRawDemands(w http.ResponseWriter, r *http.Request) {
	scenario, consume, err := parseAnalysisRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysis, err := s.analyzer.AnalyzeRawDemands(r.Context(), scenario, consume, s.timeout)
	if err != nil {
		s.writeAnalysisError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleAggregatedDemands(w http.ResponseWriter, r *http.Request) {
	scenario, consume, err := parseAnalysisRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysis, err := s.analyzer.AnalyzeAggregatedDemands(r.Context(), scenario, consume, s.timeout)
	if err != nil {
		s.writeAnalysisError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// parseAnalysisRequest extracts the uploaded scenario and the
// consume-resources option from a multipart request.
func parseAnalysisRequest(r *http.Request) (core.Scenario, bool, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return core.Scenario{}, false, fmt.Errorf("invalid multipart request: %w", err)
	}

	file, header, err := r.FormFile(scenarioFileField)
	if err != nil {
		return core.Scenario{}, false, fmt.Errorf("missing %s upload: %w", scenarioFileField, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return core.Scenario{}, false, fmt.Errorf("read %s upload: %w", scenarioFileField, err)
	}

	consume := false
	if raw := r.FormValue(consumeResourcesField); raw != "" {
		consume, err = strconv.ParseBool(raw)
		if err != nil {
			return core.Scenario{}, false, fmt.Errorf("invalid %s value %q", consumeResourcesField, raw)
		}
	}

	return core.Scenario{Filename: header.Filename, Content: content}, consume, nil
}

func (s *Server) writeAnalysisError(r *http.Request, w http.ResponseWriter, err error) {
	status, detail := classifyAnalysisError(err)
	if status == http.StatusInternalServerError {
		reqLog := logging.LoggerFromContext(r.Context())
		if reqLog == nil {
			reqLog = s.log
		}
		reqLog.Error(r.Context(), "analysis failed unexpectedly",
			logging.String("error", err.Error()),
		)
	}
	writeError(w, status, detail)
}
