package gcs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tripgather/tripgather-backend/pkg/config"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

const (
	defaultTokenEndpoint = "https://oauth2.googleapis.com/token"
	defaultAPIBase       = "https://storage.googleapis.com"
	scope                = "https://www.googleapis.com/auth/devstorage.read_write"
	pingTimeout          = 5 * time.Second
	metadataToken        = "http://metadata.google.internal/computeMetadata/v1/instance/service-accounts/default/token"
)

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, object, contentType string, body []byte) (string, error)
}

// Client talks to the GCS JSON API with a cached OAuth token.
type Client struct {
	httpClient    *http.Client
	bucket        string
	apiBase       string
	publicBaseURL string
	tokens        tokenProvider
	logg          *logger.Logger
}

type tokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// NewClient resolves credentials, builds the client and verifies bucket access.
func NewClient(ctx context.Context, storage config.StorageConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if !storage.Enabled() {
		return nil, errors.New("gcs bucket name is required")
	}

	httpClient := &http.Client{Timeout: 15 * time.Second}

	var (
		ts  *tokenSource
		err error
	)
	switch {
	case gcp.CredentialsJSON != "":
		ts, err = newServiceAccountTokenSource(httpClient, []byte(gcp.CredentialsJSON))
	case gcp.ApplicationCredentials != "":
		raw, readErr := os.ReadFile(gcp.ApplicationCredentials)
		if readErr != nil {
			return nil, fmt.Errorf("reading credentials file: %w", readErr)
		}
		ts, err = newServiceAccountTokenSource(httpClient, raw)
	default:
		ts = newMetadataTokenSource(httpClient)
	}
	if err != nil {
		return nil, err
	}

	client := &Client{
		httpClient:    httpClient,
		bucket:        storage.BucketName,
		apiBase:       defaultAPIBase,
		publicBaseURL: strings.TrimRight(storage.PublicBaseURL, "/"),
		tokens:        ts,
		logg:          logg,
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}
	return client, nil
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// Ping lists at most one object to confirm the credentials can read the bucket.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokens == nil {
		return errors.New("gcs client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/storage/v1/b/%s/o?maxResults=1", c.apiBase, url.PathEscape(c.bucket))
	resp, err := c.do(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return err
	}
	defer c.closeBody(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return statusError("gcs object check failed", resp)
	}
	return nil
}

// Upload writes body to object via a simple media upload.
func (c *Client) Upload(ctx context.Context, object, contentType string, body []byte) (string, error) {
	if c == nil || c.tokens == nil {
		return "", errors.New("gcs client not initialized")
	}
	object = strings.TrimLeft(object, "/")
	if object == "" {
		return "", errors.New("object name is required")
	}

	q := url.Values{}
	q.Set("uploadType", "media")
	q.Set("name", object)
	endpoint := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?%s", c.apiBase, url.PathEscape(c.bucket), q.Encode())

	resp, err := c.do(ctx, http.MethodPost, endpoint, contentType, body)
	if err != nil {
		return "", err
	}
	defer c.closeBody(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", statusError("gcs upload failed", resp)
	}
	return c.PublicURL(object), nil
}

// PublicURL is the browser-facing address of an uploaded object.
func (c *Client) PublicURL(object string) string {
	base := c.publicBaseURL
	if base == "" {
		base = defaultAPIBase
	}
	return fmt.Sprintf("%s/%s/%s", base, c.bucket, strings.TrimLeft(object, "/"))
}

func (c *Client) do(ctx context.Context, method, endpoint, contentType string, body []byte) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.httpClient.Do(req)
}

func (c *Client) closeBody(ctx context.Context, body io.Closer) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && c.logg != nil {
		c.logg.Warn(ctx, "gcs: closing response body failed")
	}
}

func statusError(prefix string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if len(b) > 0 {
		return fmt.Errorf("%s: %s: %s", prefix, resp.Status, strings.TrimSpace(string(b)))
	}
	return fmt.Errorf("%s: %s", prefix, resp.Status)
}

type tokenSource struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
	fetch  func(context.Context) (string, time.Time, error)
}

// Token returns the cached token until it is within a minute of expiring.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Until(t.expiry) > time.Minute {
		return t.token, nil
	}

	token, expiry, err := t.fetch(ctx)
	if err != nil {
		return "", err
	}
	t.token = token
	t.expiry = expiry
	return token, nil
}

type serviceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

func newServiceAccountTokenSource(client *http.Client, raw []byte) (*tokenSource, error) {
	var creds serviceAccount
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, errors.New("invalid service account credentials")
	}
	if creds.TokenURI == "" {
		creds.TokenURI = defaultTokenEndpoint
	}
	if _, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(creds.PrivateKey)); err != nil {
		return nil, fmt.Errorf("parsing service account key: %w", err)
	}

	return &tokenSource{
		fetch: func(ctx context.Context) (string, time.Time, error) {
			assertion, err := signAssertion(creds, time.Now())
			if err != nil {
				return "", time.Time{}, err
			}
			form := url.Values{}
			form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
			form.Set("assertion", assertion)

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.TokenURI, strings.NewReader(form.Encode()))
			if err != nil {
				return "", time.Time{}, err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return exchangeToken(client, req)
		},
	}, nil
}

// signAssertion builds the RS256 JWT bearer grant for the service account.
func signAssertion(creds serviceAccount, now time.Time) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(creds.PrivateKey))
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"iss":   creds.ClientEmail,
		"scope": scope,
		"aud":   creds.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

func newMetadataTokenSource(client *http.Client) *tokenSource {
	return &tokenSource{
		fetch: func(ctx context.Context) (string, time.Time, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataToken, nil)
			if err != nil {
				return "", time.Time{}, err
			}
			req.Header.Set("Metadata-Flavor", "Google")
			return exchangeToken(client, req)
		},
	}
}

func exchangeToken(client *http.Client, req *http.Request) (string, time.Time, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("token request returned %s", resp.Status)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", time.Time{}, err
	}
	return tokenResp.AccessToken, time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second), nil
}
