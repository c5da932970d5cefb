package adal

// IdentifierType selects which identity namespace a UserIdentifier's id
// belongs to.
type IdentifierType int

const (
	UniqueID IdentifierType = iota + 1
	DisplayableID
)

func (t IdentifierType) String() string {
	switch t {
	case UniqueID:
		return "UNIQUE_ID"
	case DisplayableID:
		return "DISPLAYABLE_ID"
	default:
		return "UNKNOWN"
	}
}

func (t IdentifierType) valid() bool {
	return t == UniqueID || t == DisplayableID
}

const (
	ParamUniqueID      = "unique_id"
	ParamDisplayableID = "displayable_id"
	ParamClientID      = "client_id"
	ParamResource      = "resource"
)

// IDTokenClaims holds the id_token claims an identifier can carry.
// JSON names are the standard id_token claim names.
type IDTokenClaims struct {
	Audience          string   `json:"aud,omitempty"`
	Issuer            string   `json:"iss,omitempty"`
	IssuedAt          int64    `json:"iat,omitempty"`
	NotBefore         int64    `json:"nbf,omitempty"`
	ExpiresAt         int64    `json:"exp,omitempty"`
	Version           string   `json:"ver,omitempty"`
	TenantID          string   `json:"tid,omitempty"`
	ObjectID          string   `json:"oid,omitempty"`
	UserPrincipalName string   `json:"upn,omitempty"`
	Subject           string   `json:"sub,omitempty"`
	GivenName         string   `json:"given_name,omitempty"`
	FamilyName        string   `json:"family_name,omitempty"`
	Name              string   `json:"name,omitempty"`
	AuthMethods       []string `json:"amr,omitempty"`
	UniqueName        string   `json:"unique_name,omitempty"`
	Nonce             string   `json:"nonce,omitempty"`
	Email             string   `json:"email,omitempty"`
}
