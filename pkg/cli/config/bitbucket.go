package config

import (
	"log/slog"

	"github.com/m-mizutani/bbmirror/pkg/domain/types"
	"github.com/m-mizutani/bbmirror/pkg/infra/bitbucket"
	"github.com/urfave/cli/v3"
)

type Bitbucket struct {
	clientID     types.ClientID
	clientSecret types.ClientSecret `masq:"secret"`
	oauthURL     string
	restURL      string
	projectsURL  string
	verifyTLS    bool
}

func (x *Bitbucket) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bb-client-id",
			Usage:       "OAuth client ID for the Bitbucket Server",
			Category:    "Bitbucket",
			Destination: (*string)(&x.clientID),
			Sources:     cli.EnvVars("BB_CLIENT_ID"),
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "bb-client-secret",
			Usage:       "OAuth client secret for the Bitbucket Server",
			Category:    "Bitbucket",
			Destination: (*string)(&x.clientSecret),
			Sources:     cli.EnvVars("BB_CLIENT_SECRET"),
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "bb-oauth-url",
			Usage:       "OAuth2 token endpoint URL",
			Category:    "Bitbucket",
			Destination: &x.oauthURL,
			Sources:     cli.EnvVars("BB_OAUTH_URL"),
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "bb-rest-url",
			Usage:       "Base URL of the REST API, e.g. https://bitbucket.example.com/rest/api/1.0",
			Category:    "Bitbucket",
			Destination: &x.restURL,
			Sources:     cli.EnvVars("BB_REST_URL"),
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "bb-projects-url",
			Usage:       "Base URL of the project browse pages, used to build web links",
			Category:    "Bitbucket",
			Destination: &x.projectsURL,
			Sources:     cli.EnvVars("BB_PROJECTS_URL"),
		},
		&cli.BoolFlag{
			Name:        "bb-request-verify",
			Usage:       "Verify the upstream TLS certificate",
			Category:    "Bitbucket",
			Destination: &x.verifyTLS,
			Sources:     cli.EnvVars("BB_REQUEST_VERIFY"),
			Value:       true,
		},
	}
}

func (x Bitbucket) New() (*bitbucket.Client, error) {
	var options []bitbucket.Option
	if x.projectsURL != "" {
		options = append(options, bitbucket.WithProjectsURL(x.projectsURL))
	}
	if !x.verifyTLS {
		options = append(options, bitbucket.WithoutTLSVerify())
	}

	return bitbucket.New(x.clientID, x.clientSecret, x.oauthURL, x.restURL, options...)
}

func (x Bitbucket) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("ClientID", x.clientID),
		slog.Int("ClientSecret.len", len(x.clientSecret)),
		slog.String("OAuthURL", x.oauthURL),
		slog.String("RestURL", x.restURL),
		slog.String("ProjectsURL", x.projectsURL),
		slog.Bool("VerifyTLS", x.verifyTLS),
	)
}
