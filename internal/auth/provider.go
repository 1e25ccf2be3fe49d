// Package auth provides SASL OAUTHBEARER authentication against MSK
// clusters using IAM-signed tokens.
package auth

import (
	"context"
	"fmt"

	"github.com/aws/aws-msk-iam-sasl-signer-go/signer"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/oauth"
)

// TokenProvider generates short-lived MSK IAM auth tokens for a single AWS
// region. Tokens are signed presigned-URL payloads with a lifetime of a few
// minutes, so the provider never caches: every call produces a fresh token.
type TokenProvider struct {
	region   string
	generate func(ctx context.Context, region string) (string, int64, error)
}

// NewTokenProvider returns a provider that signs tokens for the given region
// using the ambient AWS credential chain.
func NewTokenProvider(region string) *TokenProvider {
	return &TokenProvider{
		region:   region,
		generate: signer.GenerateAuthToken,
	}
}

// Token returns a freshly signed bearer token.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	token, _, err := p.generate(ctx, p.region)
	if err != nil {
		return "", fmt.Errorf("auth: generate msk iam token for region %s: %w", p.region, err)
	}
	return token, nil
}

// Mechanism adapts the provider to the Kafka client's SASL layer. The client
// invokes the callback on every new connection, so each session authenticates
// with a fresh token rather than reusing one past its expiry.
func (p *TokenProvider) Mechanism() sasl.Mechanism {
	return oauth.Oauth(func(ctx context.Context) (oauth.Auth, error) {
		token, err := p.Token(ctx)
		if err != nil {
			return oauth.Auth{}, err
		}
		return oauth.Auth{Token: token}, nil
	})
}
