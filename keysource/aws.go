package keysource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// S3API is the part of the S3 client used to fetch key sets.
type S3API interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// SecretsAPI is the part of the Secrets Manager client used to fetch key sets.
type SecretsAPI interface {
	GetSecretValue(
		context.Context,
		*secretsmanager.GetSecretValueInput,
		...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

func getS3Object(ctx context.Context, client S3API, bucket, key string) ([]byte, error) {
	if client == nil {
		sdkConfig, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("error loading aws config: %w", err)
		}
		client = s3.NewFromConfig(sdkConfig)
	}

	rawObject, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("error getting s3 object: %w", err)
	}
	defer rawObject.Body.Close()

	return io.ReadAll(rawObject.Body)
}

func getSecret(ctx context.Context, client SecretsAPI, secretARN string) ([]byte, error) {
	if client == nil {
		sdkConfig, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("error loading aws config: %w", err)
		}
		client = secretsmanager.NewFromConfig(sdkConfig)
	}

	input := secretsmanager.GetSecretValueInput{SecretId: aws.String(secretARN)}
	val, err := client.GetSecretValue(ctx, &input)
	if err != nil {
		return nil, err
	}
	if val.SecretBinary != nil {
		return val.SecretBinary, nil
	}
	if val.SecretString != nil {
		return []byte(*val.SecretString), nil
	}
	return nil, errors.New("no secret data found")
}
