package chat

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/workcity-chat/backend/internal/middleware"
	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/workcity-chat/backend/internal/service/chat"
	"github.com/zhouzirui/workcity-chat/backend/pkg/utils"
)

const dateLayout = "2006-01-02 15:04:05"

// Handler 会话存储的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	auth    *middleware.Authenticator
}

// New 创建会话处理器
func New(chatSvc *chatService.Service, auth *middleware.Authenticator) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		auth:    auth,
	}
}

// RegisterRoutes 注册会话相关的路由，读取公开，写入需要 edit_sessions 权限
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
	r.Get("/sessions/{id}", h.handleGetSession)

	r.Group(func(w chi.Router) {
		w.Use(h.auth.Require(middleware.CapEditSessions))
		w.Post("/sessions", h.handleCreateSession)
		w.Patch("/sessions/{id}", h.handleUpdateSession)
	})
}

type sessionSummary struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	Date         string            `json:"date"`
	Participants chat.Participants `json:"participants"`
	Status       chat.Status       `json:"status"`
}

type sessionDetail struct {
	sessionSummary
	ContextType chat.ContextType  `json:"context_type,omitempty"`
	ContextRef  string            `json:"context_ref,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func summarize(s chat.Session) sessionSummary {
	return sessionSummary{
		ID:           s.ID,
		Title:        s.Title,
		Content:      s.Content,
		Date:         s.CreatedAt.UTC().Format(dateLayout),
		Participants: s.Participants,
		Status:       s.Status,
	}
}

func detail(s chat.Session) sessionDetail {
	return sessionDetail{
		sessionSummary: summarize(s),
		ContextType:    s.ContextType,
		ContextRef:     s.ContextRef,
		Metadata:       s.Metadata,
		CreatedAt:      s.CreatedAt,
	}
}

// handleListSessions 列出会话，可按 context_type/context_ref 过滤
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		sessions []chat.Session
		err      error
	)
	if query.Has("context_type") || query.Has("context_ref") {
		sessions, err = h.chatSvc.FindSessions(r.Context(), chat.ContextType(query.Get("context_type")), query.Get("context_ref"))
	} else {
		sessions, err = h.chatSvc.ListSessions(r.Context())
	}
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, summarize(s))
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title        string            `json:"title"`
		Content      string            `json:"content"`
		Participants chat.Participants `json:"participants"`
		ContextType  chat.ContextType  `json:"context_type"`
		ContextRef   string            `json:"context_ref"`
		Metadata     map[string]string `json:"metadata"`
	}

	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), chat.NewSession{
		Title:        payload.Title,
		Content:      payload.Content,
		Participants: payload.Participants,
		ContextType:  payload.ContextType,
		ContextRef:   payload.ContextRef,
		Metadata:     payload.Metadata,
	})
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"id":      session.ID,
		"message": "Chat session created successfully",
	})
}

// handleGetSession 获取单个会话
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, detail(session))
}

// handleUpdateSession 更新会话状态
func (h *Handler) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status chat.Status `json:"status"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.chatSvc.UpdateSessionStatus(r.Context(), id, payload.Status); err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), id)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, detail(session))
}
