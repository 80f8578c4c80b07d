package domain

// TokenPair is one issued credential set: a short-lived access token that
// carries the subject and role, and a longer-lived single-use refresh token
// that carries neither.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
