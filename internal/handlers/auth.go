package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/lucasvital/todocomplete/internal/auth"
	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/dto"
	"github.com/lucasvital/todocomplete/internal/service"

	"github.com/gin-gonic/gin"
)

// OAuthProvider is the external sign-in used by the Google routes.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Email(ctx context.Context, code string) (string, error)
}

// StateStore issues one-time OAuth state values.
type StateStore interface {
	NewState(ctx context.Context) (string, error)
	ConsumeState(ctx context.Context, state string) (bool, error)
}

type AuthOptions struct {
	SessionTTL   time.Duration
	SecureCookie bool
	// Google is nil when Google sign-in is not configured.
	Google OAuthProvider
	States StateStore
	// AfterSignIn is where the Google callback redirects the browser.
	AfterSignIn string
	// OnSignOut runs after a session of userID was deleted.
	OnSignOut func(userID string)
}

// AuthHandler handles login, register and logout.
type AuthHandler struct {
	sessions auth.Sessions
	userSvc  *service.UserService
	events   *auth.Events
	opts     AuthOptions
}

// NewAuthHandler returns a new AuthHandler.
func NewAuthHandler(sessions auth.Sessions, userSvc *service.UserService, events *auth.Events, opts AuthOptions) *AuthHandler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.AfterSignIn == "" {
		opts.AfterSignIn = "/"
	}
	return &AuthHandler{sessions: sessions, userSvc: userSvc, events: events, opts: opts}
}

// Login godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  map[string]any
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.userSvc.ValidateCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid e-mail or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": dto.UserResponse{ID: user.ID, Email: user.Email}})
}

// Register godoc
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "Credentials"
// @Success      201   {object}  map[string]any
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.userSvc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "valid e-mail and password required"})
			return
		}
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "e-mail already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "user": dto.UserResponse{ID: user.ID, Email: user.Email}})
}

// Logout godoc
// @Summary      Logout
// @Description  Ends the session and every event stream opened with it.
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, err := c.Cookie(auth.SessionCookieName)
	if err == nil && sessionID != "" {
		ctx := c.Request.Context()
		who, ok := h.sessions.Get(ctx, sessionID)
		_ = h.sessions.Delete(ctx, sessionID)
		h.events.SignedOut(sessionID)
		if ok && h.opts.OnSignOut != nil {
			h.opts.OnSignOut(who.ID)
		}
	}
	c.SetCookie(auth.SessionCookieName, "", -1, "/", "", h.opts.SecureCookie, true)
	c.Status(http.StatusNoContent)
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	who, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	c.JSON(http.StatusOK, dto.UserResponse{ID: who.ID, Email: who.Email})
}

// GoogleLogin godoc
// @Summary      Start Google sign-in
// @Tags         auth
// @Success      302
// @Failure      404  {object}  map[string]string
// @Router       /auth/google [get]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.opts.Google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "google sign-in is not configured"})
		return
	}
	state, err := h.opts.States.NewState(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start sign-in"})
		return
	}
	c.Redirect(http.StatusFound, h.opts.Google.AuthCodeURL(state))
}

// GoogleCallback godoc
// @Summary      Finish Google sign-in
// @Tags         auth
// @Param        state  query  string  true  "OAuth state"
// @Param        code   query  string  true  "Authorization code"
// @Success      302
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.opts.Google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "google sign-in is not configured"})
		return
	}
	ctx := c.Request.Context()
	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state and code required"})
		return
	}
	valid, err := h.opts.States.ConsumeState(ctx, state)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign-in failed"})
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired state"})
		return
	}
	email, err := h.opts.Google.Email(ctx, code)
	if err != nil {
		log.Printf("google sign-in: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "google sign-in failed"})
		return
	}
	user, err := h.userSvc.SignInExternal(ctx, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign-in failed"})
		return
	}
	if !h.startSession(c, user) {
		return
	}
	c.Redirect(http.StatusFound, h.opts.AfterSignIn)
}

func (h *AuthHandler) startSession(c *gin.Context, user domain.User) bool {
	sessionID, err := h.sessions.Create(c.Request.Context(), user.Identity())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return false
	}
	c.SetCookie(auth.SessionCookieName, sessionID, int(h.opts.SessionTTL.Seconds()), "/", "", h.opts.SecureCookie, true)
	return true
}
