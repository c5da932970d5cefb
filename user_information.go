package adal

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// UserInformation is the decoded identity of a token's user. Cache entries
// carry it and identifiers are matched against it.
type UserInformation struct {
	UniqueID      string `json:"unique_id"`
	DisplayableID string `json:"displayable_id"`
	IDTokenClaims
}

func NewUserInformation(claims IDTokenClaims) *UserInformation {
	return &UserInformation{
		UniqueID:      firstNonEmpty(claims.ObjectID, claims.Subject),
		DisplayableID: firstNonEmpty(claims.UserPrincipalName, claims.Email, claims.UniqueName),
		IDTokenClaims: claims,
	}
}

// Identifier builds an identifier of the given type for this user with the
// claims attached.
func (i *UserInformation) Identifier(typ IdentifierType) (*UserIdentifier, error) {
	id := i.UniqueID
	if typ == DisplayableID {
		id = i.DisplayableID
	}
	u, err := NewUserIdentifier(id, typ)
	if err != nil {
		return nil, err
	}
	return u.WithClaims(i.IDTokenClaims), nil
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Version           string   `json:"ver,omitempty"`
	TenantID          string   `json:"tid,omitempty"`
	ObjectID          string   `json:"oid,omitempty"`
	UserPrincipalName string   `json:"upn,omitempty"`
	GivenName         string   `json:"given_name,omitempty"`
	FamilyName        string   `json:"family_name,omitempty"`
	Name              string   `json:"name,omitempty"`
	AuthMethods       []string `json:"amr,omitempty"`
	UniqueName        string   `json:"unique_name,omitempty"`
	Nonce             string   `json:"nonce,omitempty"`
	Email             string   `json:"email,omitempty"`
}

// DecodeIDToken reads the claims of an id_token. The signature is not
// verified; the result is only used to key the cache.
func DecodeIDToken(raw string) (*UserInformation, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.Wrap(ErrInvalidIDToken, "id token is empty")
	}

	var parsed idTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &parsed); err != nil {
		return nil, errors.Wrapf(ErrInvalidIDToken, "decode id token: %v", err)
	}

	claims := IDTokenClaims{
		Issuer:            parsed.Issuer,
		Subject:           parsed.Subject,
		Version:           parsed.Version,
		TenantID:          parsed.TenantID,
		ObjectID:          parsed.ObjectID,
		UserPrincipalName: parsed.UserPrincipalName,
		GivenName:         parsed.GivenName,
		FamilyName:        parsed.FamilyName,
		Name:              parsed.Name,
		AuthMethods:       parsed.AuthMethods,
		UniqueName:        parsed.UniqueName,
		Nonce:             parsed.Nonce,
		Email:             parsed.Email,
	}
	if len(parsed.Audience) > 0 {
		claims.Audience = parsed.Audience[0]
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Unix()
	}
	if parsed.NotBefore != nil {
		claims.NotBefore = parsed.NotBefore.Unix()
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Unix()
	}
	return NewUserInformation(claims), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
