package bitbucket_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
	"github.com/m-mizutani/bbmirror/pkg/infra/bitbucket"
	"github.com/m-mizutani/bbmirror/pkg/utils/testutil"
)

type upstreamStub struct {
	mux        *http.ServeMux
	server     *httptest.Server
	tokenCalls atomic.Int64
	token      atomic.Value
}

func newUpstreamStub(t *testing.T) *upstreamStub {
	t.Helper()

	stub := &upstreamStub{mux: http.NewServeMux()}
	stub.token.Store("token-1")
	stub.mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		n := stub.tokenCalls.Add(1)
		stub.token.Store(fmt.Sprintf("token-%d", n))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": stub.token.Load(),
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})

	stub.server = httptest.NewServer(stub.mux)
	t.Cleanup(stub.server.Close)

	return stub
}

func (x *upstreamStub) newClient(t *testing.T, options ...bitbucket.Option) *bitbucket.Client {
	t.Helper()

	options = append([]bitbucket.Option{
		bitbucket.WithHTTPClient(x.server.Client()),
		bitbucket.WithRetryInterval(time.Millisecond),
	}, options...)

	client, err := bitbucket.New(
		types.ClientID("test-client"),
		types.ClientSecret("test-secret"),
		x.server.URL+"/oauth/token",
		x.server.URL+"/rest/api/1.0",
		options...,
	)
	gt.NoError(t, err)

	return client
}

func writePage(w http.ResponseWriter, values []map[string]any, isLast bool, next int) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"size":          len(values),
		"isLastPage":    isLast,
		"nextPageStart": next,
		"values":        values,
	})
}

func drainProjects(ctx context.Context, client *bitbucket.Client) ([]*model.Project, error) {
	var projects []*model.Project
	for page, err := range client.Projects(ctx) {
		if err != nil {
			return nil, err
		}
		projects = append(projects, page.Values...)
	}
	return projects, nil
}

func TestProjectsPagination(t *testing.T) {
	ctx := context.Background()
	stub := newUpstreamStub(t)

	pages := [][]map[string]any{
		{{"key": "ALPHA", "id": 1, "name": "Alpha"}},
		{},
		{{"key": "BETA", "id": 2, "name": "Beta"}},
	}
	stub.mux.HandleFunc("/rest/api/1.0/projects", func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		gt.V(t, r.Header.Get("Authorization")).Equal("Bearer " + stub.token.Load().(string))
		writePage(w, pages[start], start == len(pages)-1, start+1)
	})

	client := stub.newClient(t)
	projects := gt.R1(drainProjects(ctx, client)).NoError(t)

	gt.A(t, projects).Length(2)
	gt.V(t, projects[0].Key).Equal(types.ProjectKey("ALPHA"))
	gt.V(t, projects[1].Key).Equal(types.ProjectKey("BETA"))

	// A single token exchange covers all pages
	gt.V(t, stub.tokenCalls.Load()).Equal(int64(1))
}

func TestRepositoriesPagination(t *testing.T) {
	ctx := context.Background()
	stub := newUpstreamStub(t)

	stub.mux.HandleFunc("/rest/api/1.0/projects/ALPHA/repos", func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		switch start {
		case 0:
			writePage(w, []map[string]any{{
				"slug":    "gateway",
				"id":      10,
				"name":    "gateway",
				"state":   "AVAILABLE",
				"project": map[string]any{"key": "ALPHA"},
				"links": map[string]any{
					"clone": []map[string]any{{"href": "ssh://git@example.com/alpha/gateway.git", "name": "ssh"}},
				},
			}}, false, 1)
		default:
			writePage(w, []map[string]any{{
				"slug":    "worker",
				"id":      11,
				"name":    "worker",
				"state":   "AVAILABLE",
				"project": map[string]any{"key": "ALPHA"},
			}}, true, 0)
		}
	})

	client := stub.newClient(t)

	var repos []*model.Repository
	for page, err := range client.Repositories(ctx, "ALPHA") {
		gt.NoError(t, err)
		repos = append(repos, page.Values...)
	}

	gt.A(t, repos).Length(2)
	gt.V(t, repos[0].Slug).Equal(types.RepoSlug("gateway"))
	gt.V(t, repos[0].ProjectKey).Equal(types.ProjectKey("ALPHA"))
	gt.A(t, repos[0].CloneLinks).Length(1)
	gt.V(t, repos[0].CloneLinks[0].Name).Equal("ssh")
	gt.V(t, repos[1].Slug).Equal(types.RepoSlug("worker"))
}

func TestUnauthorizedTriggersOneTokenRefresh(t *testing.T) {
	ctx := context.Background()
	stub := newUpstreamStub(t)

	var apiCalls atomic.Int64
	stub.mux.HandleFunc("/rest/api/1.0/projects", func(w http.ResponseWriter, r *http.Request) {
		if apiCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writePage(w, []map[string]any{{"key": "ALPHA", "id": 1, "name": "Alpha"}}, true, 0)
	})

	client := stub.newClient(t)
	projects := gt.R1(drainProjects(ctx, client)).NoError(t)

	gt.A(t, projects).Length(1)
	gt.V(t, stub.tokenCalls.Load()).Equal(int64(2))
}

func TestPersistentUnauthorizedFails(t *testing.T) {
	ctx := context.Background()
	stub := newUpstreamStub(t)

	var apiCalls atomic.Int64
	stub.mux.HandleFunc("/rest/api/1.0/projects", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	client := stub.newClient(t)
	_, err := drainProjects(ctx, client)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrAuthFailed))

	// One original attempt plus one retry after re-auth, no further retries
	gt.V(t, apiCalls.Load()).Equal(int64(2))
}

func TestServerErrorRetriesUntilExhausted(t *testing.T) {
	ctx := context.Background()
	stub := newUpstreamStub(t)

	var apiCalls atomic.Int64
	stub.mux.HandleFunc("/rest/api/1.0/projects", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := stub.newClient(t)
	_, err := drainProjects(ctx, client)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrUpstream))
	gt.V(t, apiCalls.Load()).Equal(int64(4))
}

func TestServerErrorRecoversWithinAttempts(t *testing.T) {
	ctx := context.Background()
	stub := newUpstreamStub(t)

	var apiCalls atomic.Int64
	stub.mux.HandleFunc("/rest/api/1.0/projects", func(w http.ResponseWriter, r *http.Request) {
		if apiCalls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writePage(w, []map[string]any{{"key": "ALPHA", "id": 1, "name": "Alpha"}}, true, 0)
	})

	client := stub.newClient(t)
	projects := gt.R1(drainProjects(ctx, client)).NoError(t)
	gt.A(t, projects).Length(1)
}

func TestClientErrorIsNotRetried(t *testing.T) {
	ctx := context.Background()
	stub := newUpstreamStub(t)

	var apiCalls atomic.Int64
	stub.mux.HandleFunc("/rest/api/1.0/projects", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	client := stub.newClient(t)
	_, err := drainProjects(ctx, client)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrUpstream))
	gt.V(t, apiCalls.Load()).Equal(int64(1))
}

func TestMalformedBodyIsNotRetried(t *testing.T) {
	ctx := context.Background()
	stub := newUpstreamStub(t)

	var apiCalls atomic.Int64
	stub.mux.HandleFunc("/rest/api/1.0/projects", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"values": [`))
	})

	client := stub.newClient(t)
	_, err := drainProjects(ctx, client)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrUpstream))
	gt.V(t, apiCalls.Load()).Equal(int64(1))
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := bitbucket.New("", "secret", "https://auth.example.com/token", "https://bb.example.com/rest/api/1.0")
	gt.Error(t, err)

	_, err = bitbucket.New("id", "secret", "", "https://bb.example.com/rest/api/1.0")
	gt.Error(t, err)

	_, err = bitbucket.New("id", "secret", "https://auth.example.com/token", "")
	gt.Error(t, err)
}

func TestListProjectsAgainstLiveServer(t *testing.T) {
	clientID := testutil.GetEnvOrSkip(t, "TEST_BB_CLIENT_ID")
	clientSecret := testutil.GetEnvOrSkip(t, "TEST_BB_CLIENT_SECRET")
	oauthURL := testutil.GetEnvOrSkip(t, "TEST_BB_OAUTH_URL")
	restURL := testutil.GetEnvOrSkip(t, "TEST_BB_REST_URL")

	client := gt.R1(bitbucket.New(
		types.ClientID(clientID),
		types.ClientSecret(clientSecret),
		oauthURL,
		restURL,
	)).NoError(t)

	projects := gt.R1(drainProjects(context.Background(), client)).NoError(t)
	t.Logf("listed %d projects", len(projects))
}
