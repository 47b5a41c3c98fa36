package domain

import (
	"net/mail"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// --- PRINCIPAL EXTERNE ---

// Principal est l'identité authentifiée par le fournisseur externe (JWT vérifié).
// On ne lui fait confiance que pour ces champs, rien d'autre.
type Principal struct {
	ExternalID string
	Emails     []string
	Handle     string // username proposé par le fournisseur (optionnel)
	GivenName  string
	FamilyName string
	ImageURL   string
}

// PrimaryEmail renvoie la première adresse exploitable.
func (p *Principal) PrimaryEmail() (string, error) {
	for _, e := range p.Emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, err := mail.ParseAddress(e); err != nil {
			return "", ErrInvalidEmail
		}
		return strings.ToLower(e), nil
	}
	return "", ErrPrincipalNoEmail
}

// --- ENTITÉ ---

type User struct {
	ID         string
	ExternalID string
	Email      string
	Username   string
	Name       string
	Image      string
	Bio        string
	Location   string
	Website    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserSummary est la projection "auteur" utilisée dans le feed.
type UserSummary struct {
	ID       string
	Name     string
	Username string
	Image    string
}

// UserCard est une suggestion "who to follow".
type UserCard struct {
	UserSummary
	Followers int
}

// Profile enrichit User avec les compteurs affichés sur la page profil.
type Profile struct {
	User
	Followers int
	Following int
	Posts     int
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Username: u.Username, Image: u.Image}
}

// --- FACTORY ---

// NewUserFromPrincipal dérive un utilisateur local à partir du principal.
// L'ID est généré ici ; en cas d'upsert sur une ligne existante, c'est l'ID
// stocké qui gagne.
func NewUserFromPrincipal(p *Principal, id string, now time.Time) (*User, error) {
	if p == nil || strings.TrimSpace(p.ExternalID) == "" {
		return nil, ErrUnauthenticated
	}
	email, err := p.PrimaryEmail()
	if err != nil {
		return nil, err
	}

	username := DeriveUsername(p.Handle, email)
	return &User{
		ID:         id,
		ExternalID: strings.TrimSpace(p.ExternalID),
		Email:      email,
		Username:   username,
		Name:       DeriveName(p.GivenName, p.FamilyName, username),
		Image:      strings.TrimSpace(p.ImageURL),
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}, nil
}

// DeriveUsername : handle du fournisseur, sinon la partie locale de l'email.
func DeriveUsername(handle, email string) string {
	if h := strings.TrimSpace(handle); h != "" {
		return h
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// DeriveName : "prénom nom" nettoyé, sinon le username.
func DeriveName(given, family, username string) string {
	name := strings.TrimSpace(strings.TrimSpace(given) + " " + strings.TrimSpace(family))
	if name == "" {
		return username
	}
	return norm.NFC.String(name)
}
