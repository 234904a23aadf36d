package user

import (
	"errors"
	"net/http"

	midsec "ChatGate/middleware/security"
	"ChatGate/tools/errs"
	"ChatGate/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Handler struct {
	store *Store
	jwt   security.Options
}

func NewHandler(store *Store, jwt security.Options) *Handler {
	return &Handler{store: store, jwt: jwt}
}

// HandlerRegister serves POST /api/v1/auth/register.
func (h *Handler) HandlerRegister(c *gin.Context) {
	var body RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}

	taken, err := h.store.Exists(c.Request.Context(), body.Username, body.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail("lookup failed"))
		return
	}
	if taken {
		c.JSON(http.StatusBadRequest, errs.ErrUserExists)
		return
	}

	hashed, err := security.HashPassword(body.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail("hash failed"))
		return
	}

	u, err := h.store.Create(c.Request.Context(), body.Username, body.Email, hashed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail("create failed"))
		return
	}
	c.JSON(http.StatusCreated, u)
}

// HandlerLogin serves POST /api/v1/auth/login.
func (h *Handler) HandlerLogin(c *gin.Context) {
	var body LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}

	u, err := h.store.GetByUsername(c.Request.Context(), body.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusUnauthorized, errs.ErrBadCredentials)
			return
		}
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail("lookup failed"))
		return
	}
	if !security.VerifyPassword(body.Password, u.HashedPassword) {
		c.JSON(http.StatusUnauthorized, errs.ErrBadCredentials)
		return
	}

	token, _, err := security.Generate(h.jwt, u.ID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail("token issue failed"))
		return
	}
	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// HandlerMe serves GET /api/v1/users/me.
func (h *Handler) HandlerMe(c *gin.Context) {
	id, err := uuid.Parse(midsec.UserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
		return
	}
	u, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, errs.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, u)
}
