package security

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

var _ ports.PrincipalVerifier = (*JWTVerifier)(nil)

// PrincipalClaims sont les claims émis par le fournisseur d'identité externe.
type PrincipalClaims struct {
	Email      string   `json:"email,omitempty"`
	Emails     []string `json:"emails,omitempty"`
	Username   string   `json:"username,omitempty"`
	GivenName  string   `json:"given_name,omitempty"`
	FamilyName string   `json:"family_name,omitempty"`
	Picture    string   `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier ne fait que vérifier : la clé privée reste chez le fournisseur.
type JWTVerifier struct {
	publicKey *rsa.PublicKey
	parser    *jwt.Parser
}

// NewJWTVerifier charge la clé publique RSA (PEM). issuer vide = non vérifié.
func NewJWTVerifier(publicKeyPEM []byte, issuer string) (*JWTVerifier, error) {
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	opts := []jwt.ParserOption{
		// Empêche les attaques "alg: none" ou HS256 signé avec la clé publique
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return &JWTVerifier{publicKey: pubKey, parser: jwt.NewParser(opts...)}, nil
}

// Verify vérifie la signature et traduit les claims en Principal.
func (v *JWTVerifier) Verify(tokenString string) (*domain.Principal, error) {
	claims := &PrincipalClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.publicKey, nil
	})
	if err != nil {
		return nil, err // Token expiré ou signature invalide
	}
	if !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	emails := make([]string, 0, len(claims.Emails)+1)
	if claims.Email != "" {
		emails = append(emails, claims.Email)
	}
	emails = append(emails, claims.Emails...)

	return &domain.Principal{
		ExternalID: claims.Subject,
		Emails:     emails,
		Handle:     claims.Username,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
		ImageURL:   claims.Picture,
	}, nil
}
