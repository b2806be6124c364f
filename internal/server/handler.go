package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"resumatcher/internal/observability"
	"resumatcher/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// createIngestResumeHandler wraps resume ingestion with observability
func (s *Server) createIngestResumeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return s.createIngestHandler(om, types.KindResume)
}

// createIngestJobHandler wraps job ingestion with observability
func (s *Server) createIngestJobHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return s.createIngestHandler(om, types.KindJob)
}

// createIngestHandler builds the shared ingestion handler for one entity kind
func (s *Server) createIngestHandler(om *observability.ObservabilityManager, kind types.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx := r.Context()
		tracer := om.Tracer("resumatcher.api")
		ctx, span := tracer.Start(ctx, "api.ingest."+string(kind))
		defer span.End()

		var req IngestRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Content) == "" {
			err := fmt.Errorf("missing %s content", kind)
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing content", "content field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.content_length", len(req.Content)),
			attribute.String("entity.kind", string(kind)),
		)

		metrics := om.GetMetrics()
		processed, err := s.IngestService.Ingest(ctx, kind, req.Content)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ingest"))
			metrics.RecordBusinessMetric(ctx, "document_ingested", false, om,
				attribute.String("kind", string(kind)))
			writeAppError(w, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "document_ingested", true, om,
			attribute.String("kind", string(kind)))
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("entity.id", processed.SourceID),
		)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(processed); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createImproveHandler wraps the single-shot improvement run with observability
func (s *Server) createImproveHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx := r.Context()
		tracer := om.Tracer("resumatcher.api")
		ctx, span := tracer.Start(ctx, "api.improve")
		defer span.End()

		req, ok := s.parseImproveRequest(w, r, span)
		if !ok {
			return
		}

		span.SetAttributes(
			attribute.String("resume.id", req.ResumeID),
			attribute.String("job.id", req.JobID),
			attribute.String("operation", "improve"),
		)

		result, err := s.ScoringService.Run(ctx, req.ResumeID, req.JobID)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "improvement"))
			writeAppError(w, err)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Float64("score.original", result.OriginalScore),
			attribute.Float64("score.new", result.NewScore),
			attribute.Int("attempts", result.Attempts),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createImproveStreamHandler serves the streaming variant over SSE
func (s *Server) createImproveStreamHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx := r.Context()
		tracer := om.Tracer("resumatcher.api")
		ctx, span := tracer.Start(ctx, "api.improve.stream")
		defer span.End()

		req, ok := s.parseImproveRequest(w, r, span)
		if !ok {
			return
		}

		span.SetAttributes(
			attribute.String("resume.id", req.ResumeID),
			attribute.String("job.id", req.JobID),
			attribute.String("operation", "improve_stream"),
		)

		sse, err := newSSEWriter(w)
		if err != nil {
			span.RecordError(err)
			http.Error(w, "Streaming not supported", http.StatusInternalServerError)
			return
		}

		for event := range s.ScoringService.RunStream(ctx, req.ResumeID, req.JobID) {
			if writeErr := sse.WriteEvent(event); writeErr != nil {
				span.RecordError(writeErr)
				s.Logger.LogError(writeErr, "Failed to write stream event",
					"resume_id", req.ResumeID, "job_id", req.JobID)
				return
			}
			if event.Status == types.StageError {
				span.SetAttributes(attribute.String("error.type", "improvement"))
			}
		}

		span.SetAttributes(attribute.Bool("stream.finished", true))
	}
}

// parseImproveRequest reads and validates the common improve request body
func (s *Server) parseImproveRequest(w http.ResponseWriter, r *http.Request, span trace.Span) (ImproveRequest, bool) {
	var req ImproveRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return req, false
	}

	if strings.TrimSpace(req.ResumeID) == "" {
		err := fmt.Errorf("missing resume id")
		span.RecordError(err)
		writeErrorResponse(w, "Missing resume id", "resumeId field is required", http.StatusBadRequest)
		return req, false
	}
	if strings.TrimSpace(req.JobID) == "" {
		err := fmt.Errorf("missing job id")
		span.RecordError(err)
		writeErrorResponse(w, "Missing job id", "jobId field is required", http.StatusBadRequest)
		return req, false
	}

	return req, true
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Check if this request was rate limited by examining the response
			// We'll wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets the wrapper forward streaming flushes when the underlying
// writer supports them.
func (rw *responseWrapper) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
