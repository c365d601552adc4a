package api

import (
	"fmt"
	"net/http"

	"github.com/phrazzld/memo-tagger/internal/api/shared"
	"github.com/phrazzld/memo-tagger/internal/service/auth"
)

// AuthHandler handles token renewal. Initial tokens are minted offline by
// the memotag CLI.
type AuthHandler struct {
	jwtService auth.JWTService
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(jwtService auth.JWTService) *AuthHandler {
	return &AuthHandler{jwtService: jwtService}
}

// RenewToken handles POST /api/auth/token. It must sit behind the auth
// middleware and issues a fresh token for the caller's subject.
func (h *AuthHandler) RenewToken(w http.ResponseWriter, r *http.Request) {
	subject, ok := shared.GetSubject(r.Context())
	if !ok {
		HandleAPIError(w, r, auth.ErrMissingToken, "")
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), subject)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	claims, err := h.jwtService.ValidateToken(r.Context(), token)
	if err != nil {
		// Not mapped as an auth failure: the caller's own token was valid.
		HandleAPIError(w, r, fmt.Errorf("freshly issued token rejected: %v", err),
			"Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
	})
}
