// Package pushprovider wraps the platform push registration backend. A device
// hands its raw push token to Register and gets back a provider-side
// registration the dispatch edge can address; Deregister tears it down.
package pushprovider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/matchday-app/notify-api/internal/config"
	"github.com/matchday-app/notify-api/internal/domain"
)

// Provider is the registration contract the token lifecycle manager needs.
type Provider interface {
	// Ready reports whether the delivery backend is active. The manager
	// awaits this before requesting a registration.
	Ready(ctx context.Context) error
	// Register exchanges a raw device token for a registration id.
	Register(ctx context.Context, deviceToken string) (string, error)
	// Deregister removes the provider-side registration state.
	Deregister(ctx context.Context, registrationID string) error
}

type snsProvider struct {
	client         *sns.Client
	platformAppARN string
}

// NewSNS builds a Provider backed by SNS platform endpoints. Returns
// domain.ErrUnsupported when no platform application is configured, so
// callers can downgrade push features silently.
func NewSNS(cfg *config.Config) (Provider, error) {
	if cfg.SNSPlatformAppARN == "" {
		return nil, domain.ErrUnsupported
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &snsProvider{
		client:         sns.NewFromConfig(awsCfg),
		platformAppARN: cfg.SNSPlatformAppARN,
	}, nil
}

func (p *snsProvider) Ready(ctx context.Context) error {
	_, err := p.client.GetPlatformApplicationAttributes(ctx, &sns.GetPlatformApplicationAttributesInput{
		PlatformApplicationArn: &p.platformAppARN,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWorkerNotActive, err)
	}
	return nil
}

func (p *snsProvider) Register(ctx context.Context, deviceToken string) (string, error) {
	out, err := p.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: &p.platformAppARN,
		Token:                  &deviceToken,
	})
	if err != nil {
		if isStaleRegistration(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrStaleRegistration, err)
		}
		return "", err
	}
	if out.EndpointArn == nil {
		return "", errors.New("create platform endpoint returned no arn")
	}
	return *out.EndpointArn, nil
}

func (p *snsProvider) Deregister(ctx context.Context, registrationID string) error {
	_, err := p.client.DeleteEndpoint(ctx, &sns.DeleteEndpointInput{
		EndpointArn: &registrationID,
	})
	return err
}

// isStaleRegistration detects the provider signals meaning the existing
// endpoint state no longer matches the token and must be reset.
func isStaleRegistration(err error) bool {
	var invalid *types.InvalidParameterException
	if errors.As(err, &invalid) {
		return strings.Contains(invalid.ErrorMessage(), "already exists with the same Token")
	}
	var notFound *types.NotFoundException
	return errors.As(err, &notFound)
}
