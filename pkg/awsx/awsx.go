package awsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Config struct {
	Region        string `envconfig:"REGION" split_words:"true" default:"us-east-1"`
	Profile       string `envconfig:"PROFILE" split_words:"true"`
	BedrockRegion string `envconfig:"BEDROCK_REGION" split_words:"true"`
}

// Clients bundles the service clients the media pipeline talks to.
type Clients struct {
	S3      *s3.Client
	Polly   *polly.Client
	Bedrock *bedrockruntime.Client
}

func LoadConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region := strings.TrimSpace(cfg.Region); region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if profile := strings.TrimSpace(cfg.Profile); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

func NewClients(ctx context.Context, cfg Config) (*Clients, error) {
	awsCfg, err := LoadConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newClients(awsCfg, cfg), nil
}

func newClients(awsCfg aws.Config, cfg Config) *Clients {
	bedrockRegion := strings.TrimSpace(cfg.BedrockRegion)
	return &Clients{
		S3:    s3.NewFromConfig(awsCfg),
		Polly: polly.NewFromConfig(awsCfg),
		Bedrock: bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
			if bedrockRegion != "" {
				o.Region = bedrockRegion
			}
		}),
	}
}
