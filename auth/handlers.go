package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"dietcoach/models"
	"dietcoach/repository"
	"dietcoach/validation"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// Handler serves the /auth routes.
type Handler struct {
	Users    repository.UserRepository
	Sessions repository.SessionRepository
	Tokens   *Tokens

	// Google is nil when Google sign-in is not configured.
	Google      *oauth2.Config
	UserInfoURL string
	FrontendURL string
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// issueToken signs a JWT for user and records its session.
func (h *Handler) issueToken(ctx context.Context, userID primitive.ObjectID) (string, error) {
	token, expires, err := h.Tokens.GenerateJWT(userID.Hex())
	if err != nil {
		return "", err
	}
	session := &models.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expires.Unix(),
	}
	if err := h.Sessions.CreateSession(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

func (h *Handler) Register(c *gin.Context) {
	var in validation.RegisterInput
	if !validation.BindJSON(c, &in) {
		return
	}
	ctx := c.Request.Context()

	_, err := h.Users.GetUserByEmail(ctx, in.Email)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		zap.L().Error("lookup user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    in.Email,
		Password: string(hashedPassword),
	}
	if err := h.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		zap.L().Error("insert user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	token, err := h.issueToken(ctx, user.ID)
	if err != nil {
		zap.L().Error("issue token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	zap.L().Info("user registered", zap.String("user_id", user.ID.Hex()))
	c.JSON(http.StatusCreated, tokenResponse{Token: token, User: user})
}

func (h *Handler) Login(c *gin.Context) {
	var in validation.LoginInput
	if !validation.BindJSON(c, &in) {
		return
	}
	ctx := c.Request.Context()

	user, err := h.Users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			zap.L().Error("lookup user failed", zap.Error(err))
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.HasPassword() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Use Google login for this account"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.issueToken(ctx, user.ID)
	if err != nil {
		zap.L().Error("issue token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token, User: user})
}

func (h *Handler) Logout(c *gin.Context) {
	err := h.Sessions.DeleteSession(c.Request.Context(), c.GetString(ContextToken))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		zap.L().Error("delete session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) currentUser(c *gin.Context) (*models.User, bool) {
	userID, ok := UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	user, err := h.Users.GetUserByID(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}
	if err != nil {
		zap.L().Error("load user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return nil, false
	}
	return user, true
}

func (h *Handler) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var in validation.ProfileInput
	if !validation.BindJSON(c, &in) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			validation.Abort(c, validation.Issue{Field: "name", Message: "Required"})
			return
		}
		user.Name = name
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}

	if err := h.Users.UpdateUser(c.Request.Context(), user); err != nil {
		zap.L().Error("update user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword revokes every session of the user and returns a fresh token.
func (h *Handler) ChangePassword(c *gin.Context) {
	var in validation.PasswordInput
	if !validation.BindJSON(c, &in) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if !user.HasPassword() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Use Google login for this account"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	user.Password = string(hashedPassword)
	if err := h.Users.UpdateUser(ctx, user); err != nil {
		zap.L().Error("update password failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}
	if err := h.Sessions.DeleteUserSessions(ctx, user.ID); err != nil {
		zap.L().Error("revoke sessions failed", zap.Error(err))
	}

	token, err := h.issueToken(ctx, user.ID)
	if err != nil {
		zap.L().Error("issue token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
