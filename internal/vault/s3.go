package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"folio/internal/folio"
)

// versionMetaKey is the S3 user-metadata key holding a metadata item's version.
const versionMetaKey = "folio-version"

// s3Client is the subset of the S3 API the vault uses. *s3.Client satisfies it.
type s3Client interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Options configures an S3Vault.
type S3Options struct {
	Name     string
	Bucket   string
	Prefix   string // prepended to every key
	Region   string
	Endpoint string // custom endpoint for S3-compatible stores; enables path-style addressing

	// Static credentials. When empty, the default AWS credential chain is used.
	AccessKey string
	SecretKey string
}

// S3Vault stores objects and metadata in an S3 bucket:
//
//	<prefix>/objects/previews/<snapshotID>.png
//	<prefix>/metadata/<hostID>/db
//
// Metadata versions are kept in the object's user metadata.
type S3Vault struct {
	name     string
	bucket   string
	prefix   string
	client   s3Client
	uploader *manager.Uploader
}

// NewS3Vault creates an S3Vault using the AWS SDK's default configuration
// chain, overridden by the region, endpoint and credentials in opts.
func NewS3Vault(ctx context.Context, opts S3Options) (*S3Vault, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 vault requires a bucket")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3VaultWithClient(opts, client), nil
}

func newS3VaultWithClient(opts S3Options, client s3Client) *S3Vault {
	return &S3Vault{
		name:     opts.Name,
		bucket:   opts.Bucket,
		prefix:   opts.Prefix,
		client:   client,
		uploader: manager.NewUploader(client),
	}
}

func (v *S3Vault) objectKey(key string) string {
	return path.Join(v.prefix, "objects", key)
}

func (v *S3Vault) metadataObjectKey(hostID, name string) string {
	return path.Join(v.prefix, "metadata", hostID, name)
}

// PutObject uploads a blob under key, replacing any previous value.
func (v *S3Vault) PutObject(key string, r io.Reader, size int64) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return v.upload(v.objectKey(key), r, size, nil)
}

// DeleteObject removes the blob stored under key. S3 reports success for
// keys that do not exist.
func (v *S3Vault) DeleteObject(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	objectKey := v.objectKey(key)
	if _, err := v.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("deleting %s: %w", objectKey, err)
	}
	return nil
}

// GetObject downloads the blob stored under key and writes it to w.
func (v *S3Vault) GetObject(key string, w io.Writer) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return v.download(v.objectKey(key), w, key)
}

// PutMetadata uploads a named metadata item for a host, recording version in
// the object's user metadata.
func (v *S3Vault) PutMetadata(hostID string, name string, r io.Reader, size int64, version int64) error {
	if err := validateKey(metadataKey(hostID, name)); err != nil {
		return err
	}
	meta := map[string]string{versionMetaKey: strconv.FormatInt(version, 10)}
	return v.upload(v.metadataObjectKey(hostID, name), r, size, meta)
}

// GetMetadata downloads a named metadata item for a host and writes it to w.
func (v *S3Vault) GetMetadata(hostID string, name string, w io.Writer) error {
	return v.download(v.metadataObjectKey(hostID, name), w, metadataKey(hostID, name))
}

// GetMetadataVersion returns the version recorded with a metadata item.
// Returns 0 if the item does not exist.
func (v *S3Vault) GetMetadataVersion(hostID string, name string) (int64, error) {
	out, err := v.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.metadataObjectKey(hostID, name)),
	})
	if err != nil {
		var nf *types.NotFound
		var nsk *types.NoSuchKey
		if errors.As(err, &nf) || errors.As(err, &nsk) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading metadata version: %w", err)
	}

	raw, ok := out.Metadata[versionMetaKey]
	if !ok {
		return 0, nil
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies the bucket exists and is reachable with the
// configured credentials.
func (v *S3Vault) ValidateSetup() error {
	_, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(v.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}

func (v *S3Vault) upload(objectKey string, r io.Reader, size int64, meta map[string]string) error {
	ctx := context.Background()
	counter := &countingReader{r: r}

	_, err := v.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(v.bucket),
		Key:      aws.String(objectKey),
		Body:     counter,
		Metadata: meta,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", objectKey, err)
	}

	if counter.n != size {
		// Do not leave a truncated or oversized object behind.
		mismatch := fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counter.n)
		if _, err := v.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(v.bucket),
			Key:    aws.String(objectKey),
		}); err != nil {
			return fmt.Errorf("%w (removing %s: %w)", mismatch, objectKey, err)
		}
		return mismatch
	}
	return nil
}

func (v *S3Vault) download(objectKey string, w io.Writer, key string) error {
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return fmt.Errorf("%w: %s", folio.ErrObjectNotFound, key)
		}
		return fmt.Errorf("downloading %s: %w", objectKey, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading %s: %w", objectKey, err)
	}
	return nil
}

// countingReader counts the bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Compile-time check that S3Vault implements folio.Vault interface
var _ folio.Vault = (*S3Vault)(nil)
