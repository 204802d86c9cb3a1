package esclient

import (
	"encoding/base64"
	"net/http"
)

// Authenticator injects credentials into outgoing requests.
type Authenticator interface {
	InjectHeader(req *http.Request)
}

// APIKeyAuth sends an Elasticsearch API key. The key is the encoded
// "id:api_key" value returned by the security API.
type APIKeyAuth struct {
	Key string
}

func (a APIKeyAuth) InjectHeader(req *http.Request) {
	req.Header.Set("Authorization", "ApiKey "+a.Key)
}

// BasicAuth sends a username and password.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) InjectHeader(req *http.Request) {
	req.SetBasicAuth(a.Username, a.Password)
}

// BearerAuth sends a pre-issued token.
type BearerAuth struct {
	Token string
}

func (a BearerAuth) InjectHeader(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// EncodeAPIKey builds the credential expected by APIKeyAuth from an id and
// secret pair.
func EncodeAPIKey(id, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(id + ":" + secret))
}
