package domain

import "time"

// Revocation reasons recorded on refresh tokens. Kept as stable strings
// because they end up in the database and in forensic queries.
const (
	RevokedReasonRotated    = "rotated"
	RevokedReasonSuperseded = "superseded by new login"
	RevokedReasonReuse      = "reuse detected"
	RevokedReasonUser       = "revoked by user"
)

// RefreshToken is a single link in a rotation chain. The Value column is
// the bearer secret itself. Rotated tokens point at their successor via
// ReplacedByValue; rows are never deleted so the chain stays walkable.
type RefreshToken struct {
	ID              string     `json:"id" db:"id"`
	AccountID       string     `json:"account_id" db:"account_id"`
	Value           string     `json:"-" db:"value"`
	IssuedOn        time.Time  `json:"issued_on" db:"issued_on"`
	ExpiresOn       time.Time  `json:"expires_on" db:"expires_on"`
	RevokedOn       *time.Time `json:"revoked_on" db:"revoked_on"`
	RevokedByIP     *string    `json:"revoked_by_ip" db:"revoked_by_ip"`
	RevokedReason   *string    `json:"revoked_reason" db:"revoked_reason"`
	ReplacedByValue *string    `json:"-" db:"replaced_by_value"`
}

// IsExpired reports whether the token has passed its expiry at the given time.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresOn)
}

// IsRevoked reports whether the token has been revoked.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedOn != nil
}

// IsLive reports whether the token can still be redeemed: not revoked and
// not expired.
func (t *RefreshToken) IsLive(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}

// AccessClaims are the verified claims carried by a stateless access
// credential. Validity is signature plus expiry only; claims are never
// checked against a store.
type AccessClaims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Exp       int64  `json:"exp"`
	Iat       int64  `json:"iat"`
}

// IsExpired checks if the claims are past their expiry.
func (c AccessClaims) IsExpired() bool {
	return time.Now().Unix() > c.Exp
}
