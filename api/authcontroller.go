package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"cybershield/config"
)

// AuthController issues and verifies HS256 bearer tokens for the admin
// surface. Users are static, configured through the environment.
type AuthController struct {
	secret      []byte
	tokenExpiry time.Duration
	users       map[string]userRecord
}

type userRecord struct {
	passwordHash []byte
	role         string
}

// NewAuthController builds the static user table. Passwords come from
// ADMIN_PASSWORD / USER_PASSWORD with development defaults.
func NewAuthController() *AuthController {
	expiry := time.Duration(config.GetEnvIntOrDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24)) * time.Minute

	users := map[string]userRecord{
		"admin": {hashPassword(config.GetEnvOrDefault("ADMIN_PASSWORD", "adminpass")), "admin"},
		"user":  {hashPassword(config.GetEnvOrDefault("USER_PASSWORD", "userpass")), "user"},
	}

	return &AuthController{
		secret:      []byte(config.GetEnvOrDefault("SECRET_KEY", "replace-with-strong-secret")),
		tokenExpiry: expiry,
		users:       users,
	}
}

func hashPassword(plain string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return nil
	}
	return hash
}

// Register registers the auth routes.
func (a *AuthController) Register(r *gin.Engine) {
	r.POST("/api/auth/login", a.handleLogin)
}

// LoginRequest carries credentials for token issuance.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (a *AuthController) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, exists := a.users[req.Username]
	if !exists || bcrypt.CompareHashAndPassword(user.passwordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	claims := jwt.MapClaims{
		"sub":  req.Username,
		"role": user.role,
		"exp":  time.Now().Add(a.tokenExpiry).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// RequireAuth validates the bearer token and stores the subject in the
// context under "user".
func (a *AuthController) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sub, ok := claims["sub"].(string); ok {
				c.Set("user", sub)
			}
		}
		c.Next()
	}
}
