package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.URL.Path == "/api/atividades" {
		s.handleActivities(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/atividades/busca" {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			writeError(w, http.StatusBadRequest, "q é obrigatório")
			return
		}
		sectorCode := strings.TrimSpace(r.URL.Query().Get("setorSigla"))
		writeJSON(w, http.StatusOK, s.service.SearchActivities(q, sectorCode))
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/projetos" {
		items, err := s.service.Projects(r.Context())
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/setores" {
		items, err := s.service.Sectors(r.Context())
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/colaboradores" {
		userEmail := strings.TrimSpace(r.URL.Query().Get("email"))
		if userEmail == "" {
			writeError(w, http.StatusBadRequest, "email é obrigatório")
			return
		}
		payload, err := s.service.ResolveCollaborator(r.Context(), userEmail)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}

	writeError(w, http.StatusNotFound, "não encontrado")
}

func (s *HTTPServer) handleActivities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userEmail := strings.TrimSpace(r.URL.Query().Get("userEmail"))
		sectorCode := strings.TrimSpace(r.URL.Query().Get("setorSigla"))
		all := r.URL.Query().Get("all") == "true"
		items, err := s.service.ListActivities(r.Context(), userEmail, sectorCode, all)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		// Boards poll this endpoint; never let an intermediary cache it.
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		writeJSON(w, http.StatusOK, items)

	case http.MethodPost:
		var body struct {
			Titulo          string  `json:"titulo"`
			Descricao       string  `json:"descricao"`
			DataInicio      string  `json:"data_inicio"`
			DataFim         string  `json:"data_fim"`
			DataCriacao     string  `json:"data_criacao"`
			StatusID        int     `json:"status_id"`
			Prioridade      int     `json:"prioridade"`
			PrioridadeID    int     `json:"prioridade_id"`
			ProjetoID       int64   `json:"projeto_id"`
			IDRelease       *int64  `json:"id_release"`
			HorasEstimadas  float64 `json:"horas_estimadas"`
			EstimativaHoras float64 `json:"estimativa_horas"`
			UserEmail       string  `json:"userEmail"`
			Responsaveis    []struct {
				Email string `json:"email"`
			} `json:"responsaveis"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Older frontends post "prioridade" and "horas_estimadas".
		priorityID := body.PrioridadeID
		if priorityID == 0 {
			priorityID = body.Prioridade
		}
		estimate := body.EstimativaHoras
		if estimate == 0 {
			estimate = body.HorasEstimadas
		}
		responsibles := make([]string, 0, len(body.Responsaveis))
		for _, item := range body.Responsaveis {
			if email := strings.TrimSpace(item.Email); email != "" {
				responsibles = append(responsibles, email)
			}
		}
		items, err := s.service.CreateActivity(r.Context(), CreateActivityInput{
			Title:         body.Titulo,
			Description:   body.Descricao,
			ProjectID:     body.ProjetoID,
			StatusID:      body.StatusID,
			PriorityID:    priorityID,
			EstimateHours: estimate,
			ReleaseID:     body.IDRelease,
			StartDate:     body.DataInicio,
			EndDate:       body.DataFim,
			CreatedDate:   body.DataCriacao,
			Responsibles:  responsibles,
			UserEmail:     strings.TrimSpace(body.UserEmail),
		})
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusCreated, items)

	case http.MethodPut:
		activityID, ok := activityIDParam(w, r)
		if !ok {
			return
		}
		var body struct {
			Titulo             *string  `json:"titulo"`
			Descricao          string   `json:"descricao"`
			ProjetoID          int64    `json:"projeto_id"`
			PrioridadeID       int      `json:"prioridade_id"`
			EstimativaHoras    float64  `json:"estimativa_horas"`
			IDRelease          *int64   `json:"id_release"`
			DataInicio         string   `json:"data_inicio"`
			DataFim            string   `json:"data_fim"`
			StatusID           *int     `json:"status_id"`
			Position           *int     `json:"position"`
			ResponsaveisEmails []string `json:"responsaveis_emails"`
			NovosResponsaveis  []string `json:"novosResponsaveis"`
			UserEmail          string   `json:"userEmail"`
			EditorName         string   `json:"editorName"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		// A body without a title is a board move: only the column and the
		// position change, and no permission gate applies.
		if body.Titulo == nil {
			if body.StatusID == nil || body.Position == nil {
				writeError(w, http.StatusBadRequest, "status_id e position são obrigatórios")
				return
			}
			items, err := s.service.UpdateActivityPosition(r.Context(), activityID, *body.StatusID, *body.Position)
			if err != nil {
				status, message := mapError(err)
				writeError(w, status, message)
				return
			}
			writeJSON(w, http.StatusOK, items)
			return
		}

		items, err := s.service.UpdateActivity(r.Context(), activityID, UpdateActivityInput{
			Title:           *body.Titulo,
			Description:     body.Descricao,
			ProjectID:       body.ProjetoID,
			PriorityID:      body.PrioridadeID,
			EstimateHours:   body.EstimativaHoras,
			ReleaseID:       body.IDRelease,
			StartDate:       body.DataInicio,
			EndDate:         body.DataFim,
			Responsibles:    body.ResponsaveisEmails,
			NewResponsibles: body.NovosResponsaveis,
			UserEmail:       strings.TrimSpace(body.UserEmail),
			EditorName:      strings.TrimSpace(body.EditorName),
		})
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodDelete:
		activityID, ok := activityIDParam(w, r)
		if !ok {
			return
		}
		items, err := s.service.DeleteActivity(r.Context(), activityID)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, items)

	default:
		writeError(w, http.StatusMethodNotAllowed, "método não permitido")
	}
}

func activityIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "id é obrigatório")
		return 0, false
	}
	activityID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id inválido")
		return 0, false
	}
	return activityID, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		defer func() {
			if recovered := recover(); recovered != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, recovered)
				writeError(writer, http.StatusInternalServerError, "erro interno do servidor")
			}
			log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
				requestID,
				r.Method,
				r.URL.Path,
				writer.status,
				time.Since(started).Milliseconds(),
			)
		}()

		next.ServeHTTP(writer, r)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("corpo JSON inválido")
	}
	return nil
}
