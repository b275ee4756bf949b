package commerce

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/workcity-chat/backend/internal/middleware"
	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
	commerceService "github.com/zhouzirui/workcity-chat/backend/internal/service/commerce"
	"github.com/zhouzirui/workcity-chat/backend/pkg/utils"
)

// Handler 订单与商品上下文的HTTP处理器
type Handler struct {
	svc  *commerceService.Service
	auth *middleware.Authenticator
}

// New 创建商品/订单处理器
func New(svc *commerceService.Service, auth *middleware.Authenticator) *Handler {
	return &Handler{svc: svc, auth: auth}
}

// RegisterRoutes 注册订单与商品相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(h.auth.Require(middleware.CapManageOrders, middleware.CapEditSessions)).
		Get("/orders/{orderID:[0-9]+}", h.handleGetOrder)
	r.With(h.auth.Require(middleware.CapManageOrders)).
		Post("/orders/{orderID:[0-9]+}/status", h.handleChangeOrderStatus)
	r.With(h.auth.Require(middleware.CapEditSessions)).
		Post("/products/{productID:[0-9]+}/chat", h.handleStartProductChat)
}

// handleGetOrder 返回订单上下文
func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.GetOrderContext(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, order)
}

// handleChangeOrderStatus 记录订单状态变化并同步到会话
func (h *Handler) handleChangeOrderStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	change, err := h.svc.ChangeOrderStatus(r.Context(), chi.URLParam(r, "orderID"), payload.Status)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, change)
}

// handleStartProductChat 为商品创建会话，请求体可选
func (h *Handler) handleStartProductChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Participants chat.Participants `json:"participants"`
	}
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(r, &payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	session, err := h.svc.StartProductChat(r.Context(), chi.URLParam(r, "productID"), payload.Participants...)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"session_id": session.ID})
}
