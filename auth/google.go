package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"dietcoach/models"
	"dietcoach/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	stateCookie       = "oauthstate"
)

// NewGoogleConfig returns the OAuth config for Google sign-in.
func NewGoogleConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			"openid",
		},
		Endpoint: google.Endpoint,
	}
}

type googleUser struct {
	Sub       string `json:"sub"`
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	GivenName string `json:"given_name"`
	Picture   string `json:"picture"`
}

func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google login is not enabled"})
		return
	}
	state, err := generateStateOauthCookie(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start login"})
		return
	}
	authURL := h.Google.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent select_account"))
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google login is not enabled"})
		return
	}
	ctx := c.Request.Context()

	state := c.Query("state")
	cookie, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != cookie {
		zap.L().Warn("oauth state mismatch")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid state parameter"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing code parameter"})
		return
	}

	token, err := h.Google.Exchange(ctx, code)
	if err != nil {
		zap.L().Error("oauth token exchange failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to exchange token"})
		return
	}

	profile, err := h.fetchGoogleUser(c, token)
	if err != nil {
		zap.L().Error("fetch google user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user info"})
		return
	}
	if profile.Sub == "" || profile.Email == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user info: missing ID or email"})
		return
	}

	user, err := h.Users.GetUserByEmail(ctx, profile.Email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		user = &models.User{
			GoogleID:  profile.Sub,
			Email:     profile.Email,
			Name:      profile.Name,
			AvatarURL: profile.Picture,
		}
		if user.Name == "" {
			user.Name = profile.GivenName
		}
		if err := h.Users.CreateUser(ctx, user); err != nil {
			zap.L().Error("insert google user failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
			return
		}
		zap.L().Info("google user created", zap.String("user_id", user.ID.Hex()))
	case err != nil:
		zap.L().Error("lookup user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	case user.GoogleID == "":
		c.JSON(http.StatusConflict, gin.H{"error": "Email registered with password. Use email login."})
		return
	}

	tokenString, err := h.issueToken(ctx, user.ID)
	if err != nil {
		zap.L().Error("issue token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.SetCookie(stateCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, strings.TrimRight(h.FrontendURL, "/")+"/?token="+url.QueryEscape(tokenString))
}

func (h *Handler) fetchGoogleUser(c *gin.Context, token *oauth2.Token) (*googleUser, error) {
	infoURL := h.UserInfoURL
	if infoURL == "" {
		infoURL = GoogleUserInfoURL
	}
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, infoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.Google.Client(c.Request.Context(), token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("userinfo returned " + resp.Status)
	}

	var profile googleUser
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	if profile.Sub == "" {
		profile.Sub = profile.ID
	}
	return &profile, nil
}

func generateStateOauthCookie(c *gin.Context) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	c.SetCookie(stateCookie, state, 600, "/", "", c.Request.TLS != nil, true)
	return state, nil
}
