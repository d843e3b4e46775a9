package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/aq2208/order-api/configs"
	"github.com/aq2208/order-api/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type TokenHandler struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	accounts map[string]configs.Account
	now      func() time.Time
}

func NewTokenHandler(cfg configs.Config) *TokenHandler {
	accounts := make(map[string]configs.Account, len(cfg.Security.Accounts))
	for _, a := range cfg.Security.Accounts {
		accounts[a.ID] = a
	}
	ttl := cfg.Security.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenHandler{
		secret:   []byte(cfg.Security.JWTSecret),
		issuer:   cfg.Security.Issuer,
		audience: cfg.Security.Audience,
		ttl:      ttl,
		accounts: accounts,
		now:      time.Now,
	}
}

type tokenReq struct {
	ClientID     string `form:"client_id" json:"client_id"`
	ClientSecret string `form:"client_secret" json:"client_secret"`
}

// POST /v1/token (form or JSON)
// Accepts: client_id, client_secret of a configured account
func (h *TokenHandler) IssueToken(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBind(&req); err != nil || req.ClientID == "" || req.ClientSecret == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid client"})
		return
	}

	acct, ok := h.accounts[req.ClientID]
	if !ok || subtle.ConstantTimeCompare([]byte(req.ClientSecret), []byte(acct.Secret)) != 1 {
		logging.From(c).Warn("token rejected", "client_id", req.ClientID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid client"})
		return
	}

	signed, err := h.sign(acct.ID, acct.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int64(h.ttl.Seconds()),
	})
}

func (h *TokenHandler) sign(subject, role string) (string, error) {
	now := h.now()
	claims := jwt.MapClaims{
		"iss":  h.issuer,              // issuer
		"aud":  h.audience,            // audience
		"sub":  subject,               // account id
		"role": role,                  // user | admin
		"iat":  now.Unix(),            // issued at
		"nbf":  now.Unix(),            // not before
		"exp":  now.Add(h.ttl).Unix(), // expire
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}
