package awsx

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func TestLoadConfigRegion(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_CONFIG_FILE", t.TempDir()+"/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", t.TempDir()+"/credentials")

	awsCfg, err := LoadConfig(context.Background(), Config{Region: "ap-southeast-1"})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if awsCfg.Region != "ap-southeast-1" {
		t.Fatalf("Region = %q", awsCfg.Region)
	}
}

func TestNewClientsBedrockRegionOverride(t *testing.T) {
	t.Parallel()

	clients := newClients(aws.Config{Region: "ap-southeast-1"}, Config{BedrockRegion: "us-east-1"})
	if clients.S3 == nil || clients.Polly == nil || clients.Bedrock == nil {
		t.Fatalf("clients = %+v", clients)
	}
	if got := clients.Bedrock.Options().Region; got != "us-east-1" {
		t.Fatalf("bedrock region = %q, want us-east-1", got)
	}
	if got := clients.S3.Options().Region; got != "ap-southeast-1" {
		t.Fatalf("s3 region = %q", got)
	}
}
