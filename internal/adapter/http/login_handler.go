package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/aq2208/gorder-storefront/configs"
	"github.com/aq2208/gorder-storefront/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type TokenHandler struct {
	cfg     configs.Config
	clients security.Registry
	now     func() time.Time
}

func NewTokenHandler(cfg configs.Config, clients security.Registry) *TokenHandler {
	return &TokenHandler{cfg: cfg, clients: clients, now: time.Now}
}

// POST /v1/token (form)
// Accepts: client_id, client_secret
// Optional: scope (space-separated subset of client's perms)
func (h *TokenHandler) IssueToken(c *gin.Context) {
	cl, ok := h.clients.Authenticate(c.PostForm("client_id"), c.PostForm("client_secret"))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}

	perms := cl.Perms
	if scope := strings.Fields(c.PostForm("scope")); len(scope) > 0 {
		var narrowed []string
		for _, p := range scope {
			if contains(cl.Perms, p) {
				narrowed = append(narrowed, p)
			}
		}
		if len(narrowed) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_scope"})
			return
		}
		perms = narrowed
	}

	now := h.now()
	ttl := h.cfg.Security.TTL
	claims := jwt.MapClaims{
		"iss":      h.cfg.Security.Issuer,   // issuer
		"aud":      h.cfg.Security.Audience, // audience
		"iat":      now.Unix(),              // issued at
		"nbf":      now.Unix(),              // not before
		"exp":      now.Add(ttl).Unix(),     // expire
		"clientID": cl.ID,
		"perms":    perms,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.Security.JWTSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int(ttl.Seconds()),
		"scope":        strings.Join(perms, " "),
	})
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
