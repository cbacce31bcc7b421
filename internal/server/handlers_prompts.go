package server

import (
	"net/http"
	"strings"

	"github.com/sonder-app/sonder-api/internal/db"
	"github.com/sonder-app/sonder-api/internal/types"
)

// ---------------------------------------------------------------------
// Prompt Handlers
// ---------------------------------------------------------------------

func (s *Server) handleCreatePrompt(w http.ResponseWriter, r *http.Request) {
	var req types.CreatePromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, "prompt")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := req.Validate(); err != nil {
		s.fail(w, r, validationError(err), "prompt")
		return
	}

	prompt, err := s.store.CreatePrompt(r.Context(), db.PromptInput{
		Content:      req.Content,
		ScheduledFor: req.ScheduledFor,
		IsActive:     req.IsActive,
		Source:       db.PromptSourceManual,
	})
	if err != nil {
		s.fail(w, r, err, "prompt")
		return
	}

	s.jsonResponse(w, http.StatusCreated, prompt)
}

// generatePromptResponse reports a stored generated prompt and how the
// normalizer arrived at its text.
type generatePromptResponse struct {
	Prompt  *db.Prompt `json:"prompt"`
	Outcome string     `json:"outcome"`
	Topic   string     `json:"topic"`
}

// handleGeneratePrompt runs one generation round and stores the result.
// With activate set the new prompt replaces the active one.
func (s *Server) handleGeneratePrompt(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		errorResponse(s.log, w, http.StatusServiceUnavailable, "prompt generation is not configured")
		return
	}

	var req types.GeneratePromptRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.fail(w, r, err, "prompt")
			return
		}
	}

	generated := s.generator.Generate(r.Context())
	outcome := string(generated.Outcome)
	in := db.PromptInput{
		Content: generated.Text,
		Source:  db.PromptSourceGenerated,
		Outcome: &outcome,
	}

	var (
		prompt *db.Prompt
		err    error
	)
	if req.Activate {
		prompt, err = s.store.RotateActivePrompt(r.Context(), in)
	} else {
		prompt, err = s.store.CreatePrompt(r.Context(), in)
	}
	if err != nil {
		s.fail(w, r, err, "prompt")
		return
	}

	s.log.Info("prompt generated", "prompt_id", prompt.ID, "outcome", outcome, "activated", req.Activate)
	s.jsonResponse(w, http.StatusCreated, generatePromptResponse{
		Prompt:  prompt,
		Outcome: outcome,
		Topic:   generated.Topic,
	})
}

func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		s.fail(w, r, err, "prompt")
		return
	}

	prompts, err := s.store.ListPrompts(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err, "prompt")
		return
	}

	s.jsonResponse(w, http.StatusOK, prompts)
}

func (s *Server) handleGetActivePrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := s.store.GetActivePrompt(r.Context())
	if err != nil {
		s.fail(w, r, err, "active prompt")
		return
	}

	s.jsonResponse(w, http.StatusOK, prompt)
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	promptID, err := pathID(r, "id", "prompt")
	if err != nil {
		s.fail(w, r, err, "prompt")
		return
	}

	prompt, err := s.store.GetPrompt(r.Context(), promptID)
	if err != nil {
		s.fail(w, r, err, "prompt")
		return
	}

	s.jsonResponse(w, http.StatusOK, prompt)
}

func (s *Server) handleActivatePrompt(w http.ResponseWriter, r *http.Request) {
	promptID, err := pathID(r, "id", "prompt")
	if err != nil {
		s.fail(w, r, err, "prompt")
		return
	}

	prompt, err := s.store.ActivatePrompt(r.Context(), promptID)
	if err != nil {
		s.fail(w, r, err, "prompt")
		return
	}

	s.jsonResponse(w, http.StatusOK, prompt)
}

func (s *Server) handleDeactivatePrompt(w http.ResponseWriter, r *http.Request) {
	promptID, err := pathID(r, "id", "prompt")
	if err != nil {
		s.fail(w, r, err, "prompt")
		return
	}

	prompt, err := s.store.DeactivatePrompt(r.Context(), promptID)
	if err != nil {
		s.fail(w, r, err, "prompt")
		return
	}

	s.jsonResponse(w, http.StatusOK, prompt)
}

func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	promptID, err := pathID(r, "id", "prompt")
	if err != nil {
		s.fail(w, r, err, "prompt")
		return
	}

	if err := s.store.DeletePrompt(r.Context(), promptID); err != nil {
		s.fail(w, r, err, "prompt")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Deleted Prompt"})
}

func (s *Server) handleListPromptResponses(w http.ResponseWriter, r *http.Request) {
	promptID, err := pathID(r, "id", "prompt")
	if err != nil {
		s.fail(w, r, err, "prompt")
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		s.fail(w, r, err, "response")
		return
	}

	responses, err := s.store.ListResponsesByPrompt(r.Context(), promptID, opts)
	if err != nil {
		s.fail(w, r, err, "response")
		return
	}

	s.jsonResponse(w, http.StatusOK, presentResponses(responses, callerID(r)))
}
