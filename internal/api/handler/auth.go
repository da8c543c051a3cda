package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jwt "github.com/golang-jwt/jwt/v5"
)

// generateToken signs a token carrying the anonymous connection id. The token
// only asserts an id chosen by us; no authorization decisions hang off it.
func (h *Handler) generateToken(anonID string) (string, error) {
	claims := jwt.MapClaims{
		"anon_id": anonID,
		"exp":     time.Now().Add(time.Hour * 72).Unix(),
		"iss":     "lawchat-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.Cfg.JWTSecret))
}

// parseToken validates the signature and returns the embedded anonymous id.
func (h *Handler) parseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.Cfg.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	anonID, _ := claims["anon_id"].(string)
	if anonID == "" {
		return "", errors.New("token missing anon_id")
	}
	return anonID, nil
}

// GetToken creates a fresh anonymous id and returns it with a signed token,
// so a client can reattach the same id across reconnects.
func (h *Handler) GetToken(c *gin.Context) {
	anonID := uuid.NewString()

	token, err := h.generateToken(anonID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "anon_id": anonID})
}
