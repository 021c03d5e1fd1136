package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// Claims is the subset of the identity provider's token claims the core cares
// about. The core never issues tokens itself, only verifies them.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// jwksKey mirrors one entry of a JWKS "keys" array (RFC 7517), restricted to
// the RSA fields the provider's RS256 tokens use.
type jwksKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

// JWKSVerifier verifies RS256-signed bearer tokens against keys fetched from
// a JWKS endpoint, refreshing them on a fixed interval. A failed refresh
// leaves the previously cached key set in place.
type JWKSVerifier struct {
	url             string
	issuer          string
	audience        string
	refreshInterval time.Duration
	httpClient      *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time

	stop chan struct{}
	once sync.Once
}

// NewJWKSVerifier constructs a verifier for the given JWKS endpoint. Callers
// should call Start to begin background refresh, and Stop on shutdown.
func NewJWKSVerifier(url, issuer, audience string, refreshInterval time.Duration) *JWKSVerifier {
	if refreshInterval <= 0 {
		refreshInterval = 10 * time.Minute
	}
	return &JWKSVerifier{
		url:             url,
		issuer:          issuer,
		audience:        audience,
		refreshInterval: refreshInterval,
		httpClient:      &http.Client{Timeout: 5 * time.Second},
		keys:            map[string]*rsa.PublicKey{},
		stop:            make(chan struct{}),
	}
}

// Start fetches the initial key set and begins a background refresh loop.
// Safe to call once; subsequent calls are no-ops.
func (v *JWKSVerifier) Start(ctx context.Context) error {
	if v == nil {
		return ErrAuthDisabled
	}
	var err error
	v.once.Do(func() {
		err = v.refresh(ctx)
		go v.refreshLoop()
	})
	return err
}

// Stop ends the background refresh loop.
func (v *JWKSVerifier) Stop() {
	if v == nil {
		return
	}
	select {
	case <-v.stop:
	default:
		close(v.stop)
	}
}

func (v *JWKSVerifier) refreshLoop() {
	ticker := time.NewTicker(v.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-v.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = v.refresh(ctx)
			cancel()
		}
	}
}

func (v *JWKSVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaPublicKeyFromJWK(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("jwks response contained no usable RSA keys")
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = time.Now()
	v.mu.Unlock()
	return nil
}

func rsaPublicKeyFromJWK(k jwksKey) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode n: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode e: %w", err)
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

// Validate parses and verifies a bearer token, returning the user it
// identifies. The subject claim becomes the user id; no local user record is
// consulted or created.
func (v *JWKSVerifier) Validate(token string) (*models.User, error) {
	if v == nil {
		return nil, ErrAuthDisabled
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		v.mu.RLock()
		key, ok := v.keys[kid]
		v.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, ErrInvalidToken
	}
	if v.audience != "" && !claims.RegisteredClaims.Audience.Contains(v.audience) {
		return nil, ErrInvalidToken
	}

	return &models.User{
		ID:    claims.Subject,
		Email: strings.TrimSpace(claims.Email),
		Name:  strings.TrimSpace(claims.Name),
	}, nil
}
