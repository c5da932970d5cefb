package adal

import (
	"slices"

	"github.com/pkg/errors"
)

// UserIdentifier identifies the user a cached token belongs to. It is also
// the way to reach the personal info decoded from an id_token.
//
// An application usually acquires its first token through an interactive
// flow, takes the identifier from the decoded id_token, and uses it for every
// later cache lookup.
type UserIdentifier struct {
	id     string
	typ    IdentifierType
	claims IDTokenClaims
}

// NewUserIdentifier creates an identifier of a specific type. The id itself
// is not validated.
func NewUserIdentifier(id string, typ IdentifierType) (*UserIdentifier, error) {
	if !typ.valid() {
		return nil, errors.Wrapf(ErrInvalidArgument, "type must be UniqueID or DisplayableID, got %d", int(typ))
	}
	return &UserIdentifier{
		id:  id,
		typ: typ,
	}, nil
}

// WithClaims returns a new identifier with the same id and type carrying
// the given claims.
func (u *UserIdentifier) WithClaims(claims IDTokenClaims) *UserIdentifier {
	claims.AuthMethods = slices.Clone(claims.AuthMethods)
	return &UserIdentifier{
		id:     u.id,
		typ:    u.typ,
		claims: claims,
	}
}

func (u *UserIdentifier) ID() string {
	return u.id
}

func (u *UserIdentifier) Type() IdentifierType {
	return u.typ
}

// RequestParams returns the single lookup parameter for this identifier.
// It is meant for cache lookups only and must never reach the token endpoint.
func (u *UserIdentifier) RequestParams() map[string]string {
	switch u.typ {
	case UniqueID:
		return map[string]string{ParamUniqueID: u.id}
	case DisplayableID:
		return map[string]string{ParamDisplayableID: u.id}
	}
	return map[string]string{}
}

// Equals is the cache-lookup comparison. Another identifier is equal only if
// it is the same instance; a UserInformation is compared against the field
// selected by the identifier type; a string is compared against the id.
func (u *UserIdentifier) Equals(other any) bool {
	if u == nil {
		return false
	}
	switch o := other.(type) {
	case *UserIdentifier:
		return u.Same(o)
	case *UserInformation:
		return u.MatchesUser(o)
	case UserInformation:
		return u.MatchesUser(&o)
	case string:
		return u.MatchesID(o)
	default:
		return false
	}
}

// Same reports whether other is this very instance. Two identifiers built
// separately from the same id and type are not the same.
func (u *UserIdentifier) Same(other *UserIdentifier) bool {
	return other != nil && u == other
}

func (u *UserIdentifier) MatchesUser(info *UserInformation) bool {
	if info == nil {
		return false
	}
	return (u.typ == UniqueID && u.id == info.UniqueID) ||
		(u.typ == DisplayableID && u.id == info.DisplayableID)
}

func (u *UserIdentifier) MatchesID(id string) bool {
	return u.id == id
}

// Claims returns a copy of the decoded id_token claims.
func (u *UserIdentifier) Claims() IDTokenClaims {
	c := u.claims
	c.AuthMethods = slices.Clone(c.AuthMethods)
	return c
}

func (u *UserIdentifier) Audience() string          { return u.claims.Audience }
func (u *UserIdentifier) Issuer() string            { return u.claims.Issuer }
func (u *UserIdentifier) IssuedAt() int64           { return u.claims.IssuedAt }
func (u *UserIdentifier) NotBefore() int64          { return u.claims.NotBefore }
func (u *UserIdentifier) ExpiresAt() int64          { return u.claims.ExpiresAt }
func (u *UserIdentifier) Version() string           { return u.claims.Version }
func (u *UserIdentifier) TenantID() string          { return u.claims.TenantID }
func (u *UserIdentifier) ObjectID() string          { return u.claims.ObjectID }
func (u *UserIdentifier) UserPrincipalName() string { return u.claims.UserPrincipalName }
func (u *UserIdentifier) Subject() string           { return u.claims.Subject }
func (u *UserIdentifier) GivenName() string         { return u.claims.GivenName }
func (u *UserIdentifier) FamilyName() string        { return u.claims.FamilyName }
func (u *UserIdentifier) Name() string              { return u.claims.Name }
func (u *UserIdentifier) UniqueName() string        { return u.claims.UniqueName }
func (u *UserIdentifier) Nonce() string             { return u.claims.Nonce }
func (u *UserIdentifier) Email() string             { return u.claims.Email }

func (u *UserIdentifier) AuthMethods() []string {
	return slices.Clone(u.claims.AuthMethods)
}

func (u *UserIdentifier) String() string {
	return u.typ.String() + ":" + u.id
}
