package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/bbmirror/pkg/cli/config"
)

func TestBitbucketFlags(t *testing.T) {
	bbConfig := &config.Bitbucket{}
	flags := bbConfig.Flags()

	gt.V(t, len(flags)).Equal(6)

	names := make(map[string]bool)
	for _, flag := range flags {
		names[flag.Names()[0]] = true
	}

	gt.True(t, names["bb-client-id"])
	gt.True(t, names["bb-client-secret"])
	gt.True(t, names["bb-oauth-url"])
	gt.True(t, names["bb-rest-url"])
	gt.True(t, names["bb-projects-url"])
	gt.True(t, names["bb-request-verify"])
}

func TestSentryFlags(t *testing.T) {
	sentryConfig := &config.Sentry{}
	flags := sentryConfig.Flags()

	gt.V(t, len(flags)).Equal(2)

	names := make(map[string]bool)
	for _, flag := range flags {
		names[flag.Names()[0]] = true
	}

	gt.True(t, names["sentry-dsn"])
	gt.True(t, names["sentry-env"])
}

func TestBigQueryDisabledWithoutProject(t *testing.T) {
	bqConfig := &config.BigQuery{}
	client, err := bqConfig.NewClient(t.Context())
	gt.NoError(t, err)
	gt.True(t, client == nil)
}
