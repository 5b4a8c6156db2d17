// Package bitbucket is the upstream client for the Bitbucket Server REST
// API. It authenticates with an OAuth2 client-credential exchange and
// enumerates projects and repositories as lazy page sequences.
package bitbucket

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"context"

	"github.com/cenkalti/backoff/v5"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/m-mizutani/bbmirror/pkg/domain/interfaces"
	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
	"github.com/m-mizutani/bbmirror/pkg/utils/logging"
	"github.com/m-mizutani/bbmirror/pkg/utils/safe"
)

const (
	defaultPageLimit   = 100
	defaultMaxAttempts = 4
	defaultTimeout     = 30 * time.Second
)

type Client struct {
	clientID     types.ClientID
	clientSecret types.ClientSecret
	oauthURL     string
	restURL      string
	projectsURL  string

	skipTLSVerify bool
	pageLimit     int
	maxAttempts   uint
	retryInterval time.Duration
	httpClient    *http.Client

	tokenMu sync.Mutex
	token   *oauth2.Token
}

var _ interfaces.BitbucketClient = (*Client)(nil)

type Option func(*Client)

// WithProjectsURL sets the browse URL base used to build project and
// repository web links.
func WithProjectsURL(url string) Option {
	return func(x *Client) {
		x.projectsURL = url
	}
}

// WithoutTLSVerify disables upstream certificate verification. Verification
// is on unless this option is given explicitly.
func WithoutTLSVerify() Option {
	return func(x *Client) {
		x.skipTLSVerify = true
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(x *Client) {
		x.httpClient = client
	}
}

func WithPageLimit(limit int) Option {
	return func(x *Client) {
		x.pageLimit = limit
	}
}

func WithRetryInterval(interval time.Duration) Option {
	return func(x *Client) {
		x.retryInterval = interval
	}
}

func New(clientID types.ClientID, clientSecret types.ClientSecret, oauthURL, restURL string, options ...Option) (*Client, error) {
	if clientID == "" {
		return nil, goerr.Wrap(types.ErrInvalidOption, "client ID is empty")
	}
	if clientSecret == "" {
		return nil, goerr.Wrap(types.ErrInvalidOption, "client secret is empty")
	}
	if oauthURL == "" {
		return nil, goerr.Wrap(types.ErrInvalidOption, "OAuth URL is empty")
	}
	if restURL == "" {
		return nil, goerr.Wrap(types.ErrInvalidOption, "REST URL is empty")
	}

	client := &Client{
		clientID:      clientID,
		clientSecret:  clientSecret,
		oauthURL:      oauthURL,
		restURL:       restURL,
		pageLimit:     defaultPageLimit,
		maxAttempts:   defaultMaxAttempts,
		retryInterval: 500 * time.Millisecond,
	}

	for _, opt := range options {
		opt(client)
	}

	if client.httpClient == nil {
		transport := http.DefaultTransport
		if client.skipTLSVerify {
			logging.Default().Warn("TLS certificate verification is disabled for upstream requests")
			transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
		client.httpClient = &http.Client{
			Transport: transport,
			Timeout:   defaultTimeout,
		}
	}

	return client, nil
}

func (x *Client) Source() string {
	return x.restURL
}

// accessToken returns a cached token, exchanging client credentials for a
// new one when the cached token is missing or expired.
func (x *Client) accessToken(ctx context.Context) (string, error) {
	x.tokenMu.Lock()
	defer x.tokenMu.Unlock()

	if x.token.Valid() {
		return x.token.AccessToken, nil
	}

	cfg := &clientcredentials.Config{
		ClientID:     string(x.clientID),
		ClientSecret: string(x.clientSecret),
		TokenURL:     x.oauthURL,
	}

	token, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, x.httpClient))
	if err != nil {
		return "", goerr.Wrap(types.ErrAuthFailed, "failed to exchange client credentials",
			goerr.V("oauth_url", x.oauthURL),
			goerr.V("error", err.Error()),
		)
	}

	logging.From(ctx).Debug("obtained new access token", slog.Time("expiry", token.Expiry))
	x.token = token

	return token.AccessToken, nil
}

func (x *Client) invalidateToken() {
	x.tokenMu.Lock()
	defer x.tokenMu.Unlock()
	x.token = nil
}

// getJSON issues one authorized GET and decodes the response. Transient
// failures (network errors, 429, 5xx) are retried with exponential backoff up
// to the attempt ceiling. A 401 invalidates the cached token and retries
// once; other 4xx and malformed bodies fail immediately.
func (x *Client) getJSON(ctx context.Context, url string, out any) error {
	var reauthed bool

	operation := func() (struct{}, error) {
		token, err := x.accessToken(ctx)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(goerr.Wrap(err, "failed to build request", goerr.V("url", url)))
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := x.httpClient.Do(req)
		if err != nil {
			return struct{}{}, goerr.Wrap(types.ErrUpstream, "request failed",
				goerr.V("url", url),
				goerr.V("error", err.Error()),
			)
		}
		defer safe.Close(resp.Body)

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return struct{}{}, backoff.Permanent(goerr.Wrap(types.ErrUpstream, "malformed response body",
					goerr.V("url", url),
					goerr.V("error", err.Error()),
				))
			}
			return struct{}{}, nil

		case resp.StatusCode == http.StatusUnauthorized:
			if !reauthed {
				reauthed = true
				x.invalidateToken()
				logging.From(ctx).Info("unauthorized response, refreshing access token", slog.String("url", url))
				return struct{}{}, goerr.Wrap(types.ErrAuthFailed, "unauthorized",
					goerr.V("url", url),
					goerr.V("status", resp.StatusCode),
				)
			}
			return struct{}{}, backoff.Permanent(goerr.Wrap(types.ErrAuthFailed, "unauthorized after token refresh",
				goerr.V("url", url),
				goerr.V("status", resp.StatusCode),
			))

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return struct{}{}, goerr.Wrap(types.ErrUpstream, "retryable upstream status",
				goerr.V("url", url),
				goerr.V("status", resp.StatusCode),
			)

		default:
			return struct{}{}, backoff.Permanent(goerr.Wrap(types.ErrUpstream, "upstream request rejected",
				goerr.V("url", url),
				goerr.V("status", resp.StatusCode),
			))
		}
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = x.retryInterval

	if _, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(x.maxAttempts),
	); err != nil {
		return err
	}

	return nil
}

func (x *Client) Projects(ctx context.Context) iter.Seq2[*model.ProjectPage, error] {
	return func(yield func(*model.ProjectPage, error) bool) {
		start := 0
		for {
			url := fmt.Sprintf("%s/projects?limit=%d&start=%d", x.restURL, x.pageLimit, start)
			logging.From(ctx).Debug("fetching project page", slog.String("url", url))

			var page wirePage[*wireProject]
			if err := x.getJSON(ctx, url, &page); err != nil {
				yield(nil, goerr.Wrap(err, "failed to list projects", goerr.V("start", start)))
				return
			}

			values := make([]*model.Project, 0, len(page.Values))
			for _, v := range page.Values {
				values = append(values, v.toModel(x.projectsURL))
			}

			if !yield(&model.ProjectPage{
				Values:        values,
				IsLastPage:    page.IsLastPage,
				NextPageStart: page.NextPageStart,
			}, nil) {
				return
			}

			if page.IsLastPage {
				return
			}
			start = page.NextPageStart
		}
	}
}

func (x *Client) Repositories(ctx context.Context, project types.ProjectKey) iter.Seq2[*model.RepositoryPage, error] {
	return func(yield func(*model.RepositoryPage, error) bool) {
		start := 0
		for {
			url := fmt.Sprintf("%s/projects/%s/repos?limit=%d&start=%d", x.restURL, project, x.pageLimit, start)
			logging.From(ctx).Debug("fetching repository page",
				slog.String("url", url),
				slog.Any("project", project),
			)

			var page wirePage[*wireRepository]
			if err := x.getJSON(ctx, url, &page); err != nil {
				yield(nil, goerr.Wrap(err, "failed to list repositories",
					goerr.V("project", project),
					goerr.V("start", start),
				))
				return
			}

			values := make([]*model.Repository, 0, len(page.Values))
			for _, v := range page.Values {
				values = append(values, v.toModel(project))
			}

			if !yield(&model.RepositoryPage{
				Values:        values,
				IsLastPage:    page.IsLastPage,
				NextPageStart: page.NextPageStart,
			}, nil) {
				return
			}

			if page.IsLastPage {
				return
			}
			start = page.NextPageStart
		}
	}
}
