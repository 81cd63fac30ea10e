package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medscribe/backend/pkg/errors"
	pkgjson "github.com/medscribe/backend/pkg/json"
	"github.com/medscribe/backend/pkg/validation"
	"github.com/medscribe/backend/services/scribe/entity"
	"github.com/medscribe/backend/services/scribe/usecase"
)

type Handler struct {
	usecase usecase.Usecase
	log     *slog.Logger
}

func New(usecase usecase.Usecase, log *slog.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		log:     log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/transcription", h.Transcribe)
			r.Put("/transcription", h.UpdateTranscription)
			r.Post("/entities/generate", h.GenerateEntities)
			r.Put("/entities", h.SaveEntities)
			r.Put("/prescription", h.ReplacePrescription)
			r.Get("/patient", h.GetPatient)
			r.Put("/patient", h.SavePatient)
			r.Get("/workflow", h.WorkflowState)
			r.Get("/document", h.Document)
		})
	})
	h.log.Info("all routes registered")
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	pkgjson.WriteJSON(w, http.StatusOK, map[string]bool{"status": true})
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateSessionRequest
	if err := pkgjson.ParseJSON(r, &req); err != nil {
		h.badBody(w, r, err)
		return
	}
	if err := validation.Validate(req); err != nil {
		pkgjson.WriteError(w, err)
		return
	}

	resp, err := h.usecase.CreateSession(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "create session", err)
		return
	}
	pkgjson.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.usecase.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, "get session", err)
		return
	}
	pkgjson.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	req := entity.TranscribeRequest{SessionID: chi.URLParam(r, "sessionID")}
	if err := validation.Validate(req); err != nil {
		pkgjson.WriteError(w, err)
		return
	}

	resp, err := h.usecase.Transcribe(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "transcribe", err)
		return
	}
	pkgjson.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UpdateTranscription(w http.ResponseWriter, r *http.Request) {
	var req entity.UpdateTranscriptionRequest
	if err := pkgjson.ParseJSON(r, &req); err != nil {
		h.badBody(w, r, err)
		return
	}
	req.SessionID = chi.URLParam(r, "sessionID")
	if err := validation.Validate(req); err != nil {
		pkgjson.WriteError(w, err)
		return
	}

	if err := h.usecase.UpdateTranscription(r.Context(), &req); err != nil {
		h.fail(w, r, "update transcription", err)
		return
	}
	pkgjson.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) GenerateEntities(w http.ResponseWriter, r *http.Request) {
	var req entity.GenerateEntitiesRequest
	if err := pkgjson.ParseJSON(r, &req); err != nil {
		h.badBody(w, r, err)
		return
	}
	req.SessionID = chi.URLParam(r, "sessionID")
	if err := validation.Validate(req); err != nil {
		pkgjson.WriteError(w, err)
		return
	}

	resp, err := h.usecase.GenerateEntities(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "generate entities", err)
		return
	}
	pkgjson.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) SaveEntities(w http.ResponseWriter, r *http.Request) {
	var req entity.SaveEntitiesRequest
	if err := pkgjson.ParseJSON(r, &req); err != nil {
		h.badBody(w, r, err)
		return
	}
	req.SessionID = chi.URLParam(r, "sessionID")
	if err := validation.Validate(req); err != nil {
		pkgjson.WriteError(w, err)
		return
	}

	resp, err := h.usecase.SaveEntities(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "save entities", err)
		return
	}
	pkgjson.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ReplacePrescription(w http.ResponseWriter, r *http.Request) {
	var req entity.ReplacePrescriptionRequest
	if err := pkgjson.ParseJSON(r, &req); err != nil {
		h.badBody(w, r, err)
		return
	}
	req.SessionID = chi.URLParam(r, "sessionID")
	if err := validation.Validate(req); err != nil {
		pkgjson.WriteError(w, err)
		return
	}

	resp, err := h.usecase.ReplacePrescriptionItems(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "replace prescription", err)
		return
	}
	pkgjson.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	rec, err := h.usecase.GetPatient(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, "get patient", err)
		return
	}
	pkgjson.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) SavePatient(w http.ResponseWriter, r *http.Request) {
	var req entity.SavePatientRequest
	if err := pkgjson.ParseJSON(r, &req); err != nil {
		h.badBody(w, r, err)
		return
	}
	req.SessionID = chi.URLParam(r, "sessionID")
	if err := validation.Validate(req); err != nil {
		pkgjson.WriteError(w, err)
		return
	}

	resp, err := h.usecase.SavePatientDetails(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "save patient", err)
		return
	}
	status := http.StatusOK
	if resp.Action == entity.ActionCreated {
		status = http.StatusCreated
	}
	pkgjson.WriteJSON(w, status, resp)
}

func (h *Handler) WorkflowState(w http.ResponseWriter, r *http.Request) {
	state, err := h.usecase.WorkflowState(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, "workflow state", err)
		return
	}
	pkgjson.WriteJSON(w, http.StatusOK, state)
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	doc, err := h.usecase.RenderDocument(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, "render document", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="prescription.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (h *Handler) badBody(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Warn("invalid request body", "error", err, "path", r.URL.Path)
	pkgjson.WriteError(w, errors.Validation("request body is not valid JSON").WithCause(err))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error("operation failed", "operation", op, "error", err, "path", r.URL.Path)
	pkgjson.WriteError(w, err)
}
