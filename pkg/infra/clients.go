package infra

import (
	"net/http"

	"github.com/m-mizutani/bbmirror/pkg/domain/interfaces"
)

type Clients struct {
	bitbucket     interfaces.BitbucketClient
	httpClient    HTTPClient
	bqClient      interfaces.BigQuery
	snapshotStore interfaces.SnapshotStore
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Option func(*Clients)

func New(options ...Option) *Clients {
	client := &Clients{
		httpClient: http.DefaultClient,
	}

	for _, opt := range options {
		opt(client)
	}

	return client
}

func (x *Clients) Bitbucket() interfaces.BitbucketClient {
	return x.bitbucket
}
func (x *Clients) HTTPClient() HTTPClient {
	return x.httpClient
}
func (x *Clients) BigQuery() interfaces.BigQuery {
	return x.bqClient
}
func (x *Clients) SnapshotStore() interfaces.SnapshotStore {
	return x.snapshotStore
}

func WithBitbucket(client interfaces.BitbucketClient) Option {
	return func(x *Clients) {
		x.bitbucket = client
	}
}

func WithHTTPClient(client HTTPClient) Option {
	return func(x *Clients) {
		x.httpClient = client
	}
}

func WithBigQuery(client interfaces.BigQuery) Option {
	return func(x *Clients) {
		x.bqClient = client
	}
}

func WithSnapshotStore(store interfaces.SnapshotStore) Option {
	return func(x *Clients) {
		x.snapshotStore = store
	}
}
