package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Fake Keycloak defaults
const (
	FakeRealm     = "statuswatch"
	FakeClientID  = "status-service"
	FakeSecret    = "status-secret"
	FakeKeyID     = "test-key-id"
	fakeTokenTTL  = 300
	fakeKeyLength = 2048
)

// FakeKeycloak serves the JWKS and token endpoints of one realm
// and signs tokens with its own RSA key.
type FakeKeycloak struct {
	Server     *httptest.Server
	privateKey *rsa.PrivateKey

	tokenRequests atomic.Int32
	tokenStatus   atomic.Int32
}

// NewFakeKeycloak starts the fake server; it is closed on test cleanup.
func NewFakeKeycloak(t *testing.T) *FakeKeycloak {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, fakeKeyLength)
	require.NoError(t, err)

	kc := &FakeKeycloak{privateKey: privateKey}
	kc.tokenStatus.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("/realms/"+FakeRealm+"/protocol/openid-connect/certs", kc.handleCerts)
	mux.HandleFunc("/realms/"+FakeRealm+"/protocol/openid-connect/token", kc.handleToken)

	kc.Server = httptest.NewServer(mux)
	t.Cleanup(kc.Server.Close)
	return kc
}

// URL returns the base URL of the fake server
func (kc *FakeKeycloak) URL() string {
	return kc.Server.URL
}

// IssuerURL returns the realm issuer
func (kc *FakeKeycloak) IssuerURL() string {
	return kc.Server.URL + "/realms/" + FakeRealm
}

// TokenRequests returns how many service tokens were issued or refused
func (kc *FakeKeycloak) TokenRequests() int {
	return int(kc.tokenRequests.Load())
}

// FailTokenRequests makes the token endpoint answer with the status code
func (kc *FakeKeycloak) FailTokenRequests(statusCode int) {
	kc.tokenStatus.Store(int32(statusCode))
}

// Claims returns valid claims for a user of the tenant
func (kc *FakeKeycloak) Claims(tenantID string, roles ...string) jwt.MapClaims {
	now := time.Now()
	roleList := make([]any, 0, len(roles))
	for _, role := range roles {
		roleList = append(roleList, role)
	}
	return jwt.MapClaims{
		"iss":                kc.IssuerURL(),
		"sub":                "user-123",
		"aud":                FakeClientID,
		"exp":                now.Add(time.Hour).Unix(),
		"iat":                now.Unix(),
		"preferred_username": "operator",
		"name":               "Test Operator",
		"tenant_id":          tenantID,
		"tenant_name":        tenantID,
		"realm_access":       map[string]any{"roles": roleList},
	}
}

// SignToken signs the claims with the fake realm key
func (kc *FakeKeycloak) SignToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = FakeKeyID

	signed, err := token.SignedString(kc.privateKey)
	require.NoError(t, err)
	return signed
}

func (kc *FakeKeycloak) handleCerts(w http.ResponseWriter, _ *http.Request) {
	pub := kc.privateKey.PublicKey
	body := map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"kid": FakeKeyID,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (kc *FakeKeycloak) handleToken(w http.ResponseWriter, r *http.Request) {
	n := kc.tokenRequests.Add(1)

	if code := int(kc.tokenStatus.Load()); code != http.StatusOK {
		http.Error(w, `{"error":"unauthorized_client"}`, code)
		return
	}
	if err := r.ParseForm(); err != nil || r.FormValue("client_secret") != FakeSecret {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": fmt.Sprintf("service-token-%d", n),
		"expires_in":   fakeTokenTTL,
		"token_type":   "Bearer",
	})
}
