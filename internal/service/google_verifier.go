package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// GoogleProfile is the verified identity returned by the token verifier.
type GoogleProfile struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// GoogleVerifier checks a Google ID token with the provider and returns the
// verified profile. Token exchange mechanics stay behind this boundary.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleProfile, error)
}

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// HTTPGoogleVerifier validates tokens against Google's tokeninfo endpoint.
type HTTPGoogleVerifier struct {
	httpClient *http.Client
	endpoint   string
}

// NewGoogleVerifier returns a verifier against the live Google endpoint.
func NewGoogleVerifier() *HTTPGoogleVerifier {
	return &HTTPGoogleVerifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   googleTokenInfoURL,
	}
}

func (v *HTTPGoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleProfile, error) {
	params := url.Values{}
	params.Set("id_token", idToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token verification failed: status %d", resp.StatusCode)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	if profile.Subject == "" || profile.Email == "" {
		return nil, errors.New("token verification returned an incomplete profile")
	}
	return &profile, nil
}
