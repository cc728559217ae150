package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"research-backend/internal/shared/server/middleware"
	"research-backend/internal/shared/server/respond"
)

// Handler implements the mailbox connect/disconnect flow. Connecting is a
// standard server-side OAuth dance; the interactive device flow is
// deliberately unsupported.
type Handler struct {
	Repo       Repo
	OAuth      *oauth2.Config
	UIRedirect string

	stateTTL time.Duration
	states   *stateStore
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo, oauthCfg *oauth2.Config, uiRedirect string) *Handler {
	return &Handler{
		Repo:       repo,
		OAuth:      oauthCfg,
		UIRedirect: uiRedirect,
		stateTTL:   5 * time.Minute,
		states:     newStateStore(),
	}
}

// RegisterRoutes attaches mailbox connection routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/email/connect/start", h.start)
	rg.GET("/email/connect/callback", h.callback)
	rg.GET("/email/status", h.status)
	rg.DELETE("/email/connect", h.disconnect)
}

func (h *Handler) start(c *gin.Context) {
	if h.OAuth.ClientID == "" || h.OAuth.ClientSecret == "" || h.OAuth.RedirectURL == "" {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "mailbox auth not configured", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
		return
	}

	state := uuid.NewString()
	h.states.put(state, userID, time.Now().Add(h.stateTTL))

	// Offline access + forced consent so a refresh token is always issued.
	authURL := h.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}

	userID, ok := h.states.consume(state)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := h.OAuth.Exchange(ctx, code)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", nil)
		return
	}
	if token.RefreshToken == "" {
		respond.Error(c, http.StatusBadGateway, "auth_failed", "provider did not issue a refresh token", nil)
		return
	}

	email, err := h.fetchEmail(ctx, token)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch mailbox profile", nil)
		return
	}

	cred := Credential{
		UserID:         userID,
		Provider:       ProviderGmail,
		ConnectedEmail: email,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		ExpiresAt:      token.Expiry.UTC(),
	}
	if err := h.Repo.Upsert(ctx, cred); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store credential", nil)
		return
	}

	redirectURL, err := appendQuery(h.UIRedirect, "emailConnected", "true")
	if err != nil {
		respond.JSON(c, http.StatusOK, gin.H{"connected": true, "email": email})
		return
	}
	c.Redirect(http.StatusFound, redirectURL)
}

func (h *Handler) status(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	cred, err := h.Repo.Get(c.Request.Context(), userID, ProviderGmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.JSON(c, http.StatusOK, gin.H{"connected": false})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch credential", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"connected": true,
		"provider":  cred.Provider,
		"email":     cred.ConnectedEmail,
	})
}

func (h *Handler) disconnect(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Repo.Delete(c.Request.Context(), userID, ProviderGmail); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to disconnect", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"connected": false})
}

type gmailProfile struct {
	Email string `json:"email"`
}

func (h *Handler) fetchEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	client := h.OAuth.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info gmailProfile
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	return info.Email, nil
}

type pendingState struct {
	userID string
	exp    time.Time
}

type stateStore struct {
	items map[string]pendingState
	mu    sync.Mutex
}

func newStateStore() *stateStore {
	return &stateStore{items: make(map[string]pendingState)}
}

func (s *stateStore) put(state, userID string, exp time.Time) {
	s.mu.Lock()
	s.items[state] = pendingState{userID: userID, exp: exp}
	s.mu.Unlock()
}

func (s *stateStore) consume(state string) (string, bool) {
	s.mu.Lock()
	pending, ok := s.items[state]
	if ok {
		delete(s.items, state)
	}
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	if time.Now().After(pending.exp) {
		return "", false
	}
	return pending.userID, true
}

func appendQuery(rawURL, key, value string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
