package domain

// VerifiedIdentity is the normalized result of verifying an externally
// issued credential against the identity provider. Both credential shapes
// (signed ID token, bearer access token) produce the same structure.
type VerifiedIdentity struct {
	SubjectID  string `json:"subject_id"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	PictureURL string `json:"picture_url"`
}
