// File: internal/domain/signup.go
package domain

import "fmt"

// Provider identifies how an account proves its identity.
type Provider string

const (
	ProviderLocal    Provider = "local"
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

// ParseProvider maps a request value to a Provider. Empty means local.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case "", ProviderLocal:
		return ProviderLocal, nil
	case ProviderGoogle:
		return ProviderGoogle, nil
	case ProviderFacebook:
		return ProviderFacebook, nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// OAuthProfile holds the profile data returned by an OAuth provider.
type OAuthProfile struct {
	ProviderID    string
	Email         string
	FirstName     string
	LastName      string
	PictureURL    string
	EmailVerified bool
}

// SignUp is a tagged sign-up request. Exactly one of Local or OAuth is set,
// selected by Provider; build it with NewLocalSignUp or NewOAuthSignUp.
type SignUp struct {
	Provider Provider
	Local    *LocalSignUp
	OAuth    *OAuthProfile
}

// LocalSignUp carries password based registration data.
type LocalSignUp struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Username  string
}

func NewLocalSignUp(in LocalSignUp) SignUp {
	return SignUp{Provider: ProviderLocal, Local: &in}
}

func NewOAuthSignUp(p Provider, profile OAuthProfile) SignUp {
	return SignUp{Provider: p, OAuth: &profile}
}

// Validate checks that the payload matches the tag.
func (s SignUp) Validate() error {
	switch s.Provider {
	case ProviderLocal:
		if s.Local == nil || s.OAuth != nil {
			return fmt.Errorf("local sign-up requires a local payload")
		}
	case ProviderGoogle, ProviderFacebook:
		if s.OAuth == nil || s.Local != nil {
			return fmt.Errorf("%s sign-up requires an oauth profile", s.Provider)
		}
		if s.OAuth.ProviderID == "" {
			return fmt.Errorf("%s sign-up requires a provider id", s.Provider)
		}
	default:
		return fmt.Errorf("unknown provider %q", s.Provider)
	}
	return nil
}
