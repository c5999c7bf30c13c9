package handlers

import (
	"net/http"

	"github.com/pharmaciedusoleil/portal/internal/core/timeline"
	"github.com/pharmaciedusoleil/portal/internal/models"
	"github.com/pharmaciedusoleil/portal/internal/services"
)

type ChatHandler struct {
	loop       *timeline.Loop
	workspaces *services.WorkspaceService
}

func NewChatHandler(loop *timeline.Loop, workspaces *services.WorkspaceService) *ChatHandler {
	return &ChatHandler{loop: loop, workspaces: workspaces}
}

type ChatState struct {
	Messages []models.Message   `json:"messages"`
	Typing   bool               `json:"typing"`
	Context  models.UserContext `json:"context"`
}

type SendRequest struct {
	Text string `json:"text"`
}

type SendResponse struct {
	Accepted bool            `json:"accepted"`
	Message  *models.Message `json:"message,omitempty"`
}

type ContextRequest struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
}

// GetConversation returns the transcript and whether the assistant is typing.
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(h.workspaces, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var state ChatState
	h.loop.Do(func() {
		state = ChatState{Messages: ws.Session.Messages(), Typing: ws.Session.Typing(), Context: ws.Session.Context()}
	})
	writeJSON(w, http.StatusOK, state)
}

// SendMessage appends the visitor's message; the reply arrives later.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(h.workspaces, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req SendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var resp SendResponse
	h.loop.Do(func() {
		msg, ok := ws.Session.Send(req.Text)
		if ok {
			resp = SendResponse{Accepted: true, Message: &msg}
		}
	})
	status := http.StatusOK
	if resp.Accepted {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

// UpdateContext records the page the visitor is looking at.
func (h *ChatHandler) UpdateContext(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(h.workspaces, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req ContextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	h.loop.Do(func() {
		ws.Session.Navigate(req.Path)
		ws.Session.SetLanguage(req.Language)
	})
	w.WriteHeader(http.StatusNoContent)
}
