package models

// AuthResult is returned by every successful register, login and refresh.
// It is never persisted.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	UserName     string
	Role         Role
}

// Principal is the identity extracted from a verified access token. It is
// passed explicitly to code that needs to know who is calling.
type Principal struct {
	UserName string
	Role     Role
}
