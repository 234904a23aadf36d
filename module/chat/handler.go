package chat

import (
	"net/http"
	"strconv"
	"strings"

	midsec "ChatGate/middleware/security"
	"ChatGate/module/user"
	svc "ChatGate/service/chat"
	"ChatGate/tools/errs"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SendDMRequest struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	Content     string `json:"content" binding:"required"`
}

type Handler struct {
	msgs   *Store
	users  *user.Store
	router *svc.Router
}

func NewHandler(msgs *Store, users *user.Store, router *svc.Router) *Handler {
	return &Handler{msgs: msgs, users: users, router: router}
}

func (h *Handler) current(c *gin.Context) (svc.Identity, bool) {
	id, err := uuid.Parse(midsec.UserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
		return svc.Identity{}, false
	}
	u, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusUnauthorized, errs.ErrTokenInvalid.WithDetail("unknown user"))
		return svc.Identity{}, false
	}
	return svc.Identity{ID: u.ID, Username: u.Username}, true
}

// HandlerSendDM serves POST /api/v1/messages/dm. The REST path delivers to
// the recipient's live sessions only; the sender gets the record in the
// response body rather than an echo frame.
func (h *Handler) HandlerSendDM(c *gin.Context) {
	sender, ok := h.current(c)
	if !ok {
		return
	}

	var body SendDMRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	content := strings.TrimSpace(body.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("content is required"))
		return
	}
	recipient, err := uuid.Parse(body.RecipientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("invalid recipient_id"))
		return
	}

	if _, err := h.users.GetByID(c.Request.Context(), recipient); err != nil {
		c.JSON(http.StatusNotFound, errs.ErrUserNotFound)
		return
	}

	rec, err := h.msgs.SaveMessage(c.Request.Context(), sender, recipient, content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail("message could not be stored"))
		return
	}

	h.router.Deliver(recipient.String(), rec)

	c.JSON(http.StatusCreated, rec)
}

// HandlerHistory serves GET /api/v1/messages/dm/:other_user_id.
func (h *Handler) HandlerHistory(c *gin.Context) {
	me, ok := h.current(c)
	if !ok {
		return
	}
	other, err := uuid.Parse(c.Param("other_user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("invalid other_user_id"))
		return
	}

	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	msgs, err := h.msgs.History(c.Request.Context(), me.ID, other, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail("history query failed"))
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// HandlerConversations serves GET /api/v1/messages/conversations.
func (h *Handler) HandlerConversations(c *gin.Context) {
	me, ok := h.current(c)
	if !ok {
		return
	}
	convs, err := h.msgs.Conversations(c.Request.Context(), me.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail("conversations query failed"))
		return
	}
	c.JSON(http.StatusOK, convs)
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
