package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/darasahub/darasa/core"
	"github.com/darasahub/darasa/core/principal"
)

var nowFunc = time.Now // mockable

// Claims is the decoded payload of a credential. A credential is immutable
// once issued: refresh re-issues, it never mutates.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Role         string `json:"role,omitempty"` // absent on legacy credentials
	TenantID     string `json:"tenant_id,omitempty"`
}

// Ref converts the claims into the reference the identity resolver works from.
func (c Claims) Ref() principal.Ref {
	return principal.Ref{ID: c.Subject, Role: c.Role, TenantID: c.TenantID}
}

// Codec issues and verifies the signed, time-boxed bearer credentials.
type Codec struct {
	issuer     string
	secretKey  []byte
	expiration time.Duration
	method     jwt.SigningMethod
}

func NewCodec(conf *core.Config) *Codec {
	return &Codec{
		issuer:     conf.AppName,
		secretKey:  conf.SecretKey,
		expiration: conf.Auth.JWTExpirationDelta,
		method:     jwt.SigningMethodHS256,
	}
}

// ClaimsFor builds the claims for a principal snapshot at the current time.
// Two credentials issued for the same principal differ only in their
// issued-at/expiry timestamps.
func (c *Codec) ClaimsFor(p principal.Principal, origIat ...int64) *Claims {
	now := nowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	role := p.Role
	if role == "" {
		role = inferRole(p)
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    c.issuer,
			Subject:   p.ID,
			ExpiresAt: now.Add(c.expiration).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Role:         role,
		TenantID:     p.TenantID,
	}
}

// Issue generates a signed credential string for the principal.
func (c *Codec) Issue(p principal.Principal, origIat ...int64) (string, error) {
	token := jwt.NewWithClaims(c.method, c.ClaimsFor(p, origIat...))
	ss, err := token.SignedString(c.secretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing credential")
	}
	return ss, nil
}

// Verify checks the signature and expiry and returns the claims unchanged.
func (c *Codec) Verify(token string) (*Claims, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, ErrInvalidCredential
		}
		return c.secretKey, nil
	})
	if err != nil {
		if vErr, ok := err.(*jwt.ValidationError); ok {
			switch {
			case vErr.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrMalformedCredential
			case vErr.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
				return nil, ErrExpiredCredential
			}
		}
		return nil, ErrInvalidCredential
	}
	if !parsed.Valid {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

// inferRole tags principals created before the role field was mandatory.
// It is a migration shim, not a steady-state path: a record shape that
// coincidentally carries a learner or guardian marker will be mis-tagged.
func inferRole(p principal.Principal) string {
	switch p.Kind {
	case principal.KindLearner:
		return principal.RoleStudent
	case principal.KindGuardian:
		return principal.RoleParent
	}
	if p.AdmissionNo != "" {
		return principal.RoleStudent
	}
	if p.Relation != "" {
		return principal.RoleParent
	}
	return principal.RoleUser
}
