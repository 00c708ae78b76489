package database

import (
	"context"
	"errors"
	"testing"

	appconfig "rescuebite/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

func TestNewDynamoDBConfig_UsesServiceConfig(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:          "eu-west-1",
		AWSAccessKeyID:     "key-1",
		AWSSecretAccessKey: "secret-1",
	}

	awsCfg, err := NewDynamoDBConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awsCfg.Region != "eu-west-1" {
		t.Fatalf("expected region eu-west-1, got %q", awsCfg.Region)
	}

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.AccessKeyID != "key-1" || creds.SecretAccessKey != "secret-1" {
		t.Fatalf("static credentials not taken from config: %+v", creds)
	}
}

func TestNewDynamoDBConfig_LocalEndpoint(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:          "us-east-1",
		AWSAccessKeyID:     "local",
		AWSSecretAccessKey: "local",
		DynamoDBEndpoint:   "http://dynamodb:8000",
	}

	awsCfg, err := NewDynamoDBConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awsCfg.EndpointResolverWithOptions == nil {
		t.Fatal("expected an endpoint resolver for the local endpoint")
	}

	ep, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint(dynamodb.ServiceID, "us-east-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ep.URL != "http://dynamodb:8000" {
		t.Fatalf("expected local endpoint, got %q", ep.URL)
	}

	var notFound *aws.EndpointNotFoundError
	if _, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint("S3", "us-east-1"); !errors.As(err, &notFound) {
		t.Fatalf("expected EndpointNotFoundError for other services, got %v", err)
	}
}
