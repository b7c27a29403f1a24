package handler

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"lennonwall/backend/internal/config"
	"lennonwall/backend/internal/models"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type identityClaims struct {
	AnonID string `json:"anon_id"`
	jwt.RegisteredClaims
}

// IdentityIssuer signs and verifies server-issued anonymous identities.
type IdentityIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewIdentityIssuer uses a random per-process secret when none is configured,
// which invalidates issued tokens on restart.
func NewIdentityIssuer(cfg config.IdentityConfig) *IdentityIssuer {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Fatalf("generate identity secret: %v", err)
		}
		log.Println("WARNING: IDENTITY_SECRET not set, using a random secret")
	}
	return &IdentityIssuer{secret: secret, issuer: cfg.Issuer, ttl: config.IdentityTokenTTL}
}

// generateJWT signs a token carrying the anonymous ID.
func (i *IdentityIssuer) generateJWT(anonID string) (string, error) {
	now := time.Now()
	claims := identityClaims{
		AnonID: anonID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ValidateAndGetAnonID checks the signature, issuer and expiry.
func (i *IdentityIssuer) ValidateAndGetAnonID(tokenString string) (string, error) {
	claims := &identityClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(i.issuer))
	if err != nil {
		return "", fmt.Errorf("invalid identity token: %w", err)
	}
	if claims.AnonID == "" {
		return "", errors.New("identity token has no anon_id")
	}
	return claims.AnonID, nil
}

// GetAnonID creates an anonymous ID and returns it with a signed token.
func (h *Handler) GetAnonID(c *gin.Context) {
	anonUUID, err := uuid.NewRandom()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}
	anonID := anonUUID.String()

	token, err := h.Identity.generateJWT(anonID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "anonId": anonID})
}

// identity resolves who is acting: the supplied token, then a valid bearer
// identity, then the client IP.
func (h *Handler) identity(c *gin.Context, supplied string) models.IdentityToken {
	if supplied != "" {
		return models.IdentityToken(supplied)
	}
	if anonID := h.bearerAnonID(c); anonID != "" {
		return models.IdentityToken(anonID)
	}
	return models.IdentityToken(c.ClientIP())
}

// rateKey charges requests to the bearer identity or the client IP. The body
// is not read here.
func (h *Handler) rateKey(c *gin.Context) string {
	if anonID := h.bearerAnonID(c); anonID != "" {
		return anonID
	}
	return c.ClientIP()
}

func (h *Handler) bearerAnonID(c *gin.Context) string {
	if h.Identity == nil {
		return ""
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	anonID, err := h.Identity.ValidateAndGetAnonID(authHeader[7:])
	if err != nil {
		return ""
	}
	return anonID
}
