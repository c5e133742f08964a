package main

import (
	"context"
	"fmt"
	"path"

	"dagger/clusterlens/internal/dagger"
)

// bucketCreds locates the S3-compatible bucket clusterlens binaries are
// published to.
type bucketCreds struct {
	endpoint        *dagger.Secret
	bucket          *dagger.Secret
	accessKeyId     *dagger.Secret
	secretAccessKey *dagger.Secret
}

// publish syncs the release artifacts to every prefix in turn, e.g. the
// version tag and "latest".
func (t *Clusterlens) publish(
	ctx context.Context,
	artifacts *dagger.Directory,
	creds bucketCreds,
	prefixes ...string,
) error {
	bucketName, err := creds.bucket.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket name: %w", err)
	}

	endpointUrl, err := creds.endpoint.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get endpoint: %w", err)
	}

	awsCli := dag.Container().
		From("amazon/aws-cli:latest").
		WithSecretVariable("AWS_ACCESS_KEY_ID", creds.accessKeyId).
		WithSecretVariable("AWS_SECRET_ACCESS_KEY", creds.secretAccessKey).
		WithEnvVariable("AWS_DEFAULT_REGION", "auto").
		WithDirectory("/artifacts", artifacts).
		WithWorkdir("/artifacts")

	for _, prefix := range prefixes {
		destination := fmt.Sprintf("s3://%s", path.Join(bucketName, "clusterlens", prefix))
		_, err := awsCli.
			WithExec([]string{
				"aws", "s3", "sync", ".",
				destination,
				"--endpoint-url", endpointUrl,
			}).
			Sync(ctx)
		if err != nil {
			return fmt.Errorf("failed to publish clusterlens artifacts under %s: %w", prefix, err)
		}
	}

	return nil
}

// ReleaseLatest builds the clusterlens release binaries and publishes them
// under the version and "latest" prefixes.
func (t *Clusterlens) ReleaseLatest(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucket *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	artifacts := t.BuildRelease(ctx, version, commit)
	creds := bucketCreds{
		endpoint:        endpoint,
		bucket:          bucket,
		accessKeyId:     accessKeyId,
		secretAccessKey: secretAccessKey,
	}
	return artifacts, t.publish(ctx, artifacts, creds, version, "latest")
}

// Nightly builds the clusterlens binaries from commit and publishes them under
// "nightly".
func (t *Clusterlens) Nightly(
	ctx context.Context,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucket *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	artifacts := t.BuildRelease(ctx, "nightly", commit)
	creds := bucketCreds{
		endpoint:        endpoint,
		bucket:          bucket,
		accessKeyId:     accessKeyId,
		secretAccessKey: secretAccessKey,
	}
	return artifacts, t.publish(ctx, artifacts, creds, "nightly")
}
