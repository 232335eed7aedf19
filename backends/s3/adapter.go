// Package s3 implements the backends.Storage interface on top of an
// S3 bucket (or an S3-compatible store such as MinIO), so the share
// root can live in object storage instead of a local directory.
// Directories are implicit: a prefix exists when at least one object
// lives under it.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/quickserve/quickserve/backends"
	"github.com/quickserve/quickserve/internal/pathutil"
)

// Adapter serves the share root from an S3 bucket.
type Adapter struct {
	client     *awss3.S3
	bucketName string
	logger     *zap.Logger
}

// Options configures the S3 adapter.
type Options struct {
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	Endpoint  string
}

// NewAdapter creates an S3 storage adapter and verifies bucket access.
func NewAdapter(opts Options, logger *zap.Logger) (*Adapter, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}

	awsConfig := &aws.Config{
		Region: aws.String(opts.Region),
		Credentials: credentials.NewStaticCredentials(
			opts.AccessKey,
			opts.SecretKey,
			"",
		),
	}

	// Custom endpoint with path-style addressing for MinIO-style stores.
	if opts.Endpoint != "" {
		awsConfig.Endpoint = aws.String(opts.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := awss3.New(sess)

	if _, err := client.HeadBucket(&awss3.HeadBucketInput{
		Bucket: aws.String(opts.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("failed to access S3 bucket %s: %w", opts.Bucket, err)
	}

	return &Adapter{
		client:     client,
		bucketName: opts.Bucket,
		logger:     logger,
	}, nil
}

// Close releases resources held by the adapter.
func (a *Adapter) Close() error {
	return nil
}

func isS3NotFound(err error) bool {
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}

// Open opens an object for reading.
func (a *Adapter) Open(ctx context.Context, relPath string) (io.ReadCloser, error) {
	key, err := pathutil.Sanitize(relPath)
	if err != nil {
		return nil, err
	}

	result, err := a.client.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, backends.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	a.logger.Debug("object opened",
		zap.String("bucket", a.bucketName),
		zap.String("key", key))

	return result.Body, nil
}

// Create writes a new object, refusing to overwrite an existing key.
func (a *Adapter) Create(ctx context.Context, relPath string, reader io.Reader) error {
	key, err := pathutil.Sanitize(relPath)
	if err != nil {
		return err
	}

	exists, err := a.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return backends.ErrAlreadyExists
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read upload data: %w", err)
	}

	if _, err := a.client.PutObjectWithContext(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}); err != nil {
		return fmt.Errorf("failed to put object to S3: %w", err)
	}

	a.logger.Debug("object created",
		zap.String("bucket", a.bucketName),
		zap.String("key", key),
		zap.Int("size", len(data)))

	return nil
}

// Delete removes an object, or every object under a directory prefix.
func (a *Adapter) Delete(ctx context.Context, relPath string) error {
	key, err := pathutil.Sanitize(relPath)
	if err != nil {
		return err
	}

	keys, err := a.keysFor(ctx, key)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return backends.ErrNotFound
	}

	for _, k := range keys {
		if _, err := a.client.DeleteObjectWithContext(ctx, &awss3.DeleteObjectInput{
			Bucket: aws.String(a.bucketName),
			Key:    aws.String(k),
		}); err != nil {
			return fmt.Errorf("failed to delete object %s: %w", k, err)
		}
	}
	return nil
}

// Rename moves an object or directory prefix via copy and delete.
func (a *Adapter) Rename(ctx context.Context, oldPath, newPath string) error {
	oldKey, err := pathutil.Sanitize(oldPath)
	if err != nil {
		return err
	}
	newKey, err := pathutil.Sanitize(newPath)
	if err != nil {
		return err
	}

	keys, err := a.keysFor(ctx, oldKey)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return backends.ErrNotFound
	}

	for _, k := range keys {
		dst := newKey + strings.TrimPrefix(k, oldKey)
		if _, err := a.client.CopyObjectWithContext(ctx, &awss3.CopyObjectInput{
			Bucket:     aws.String(a.bucketName),
			CopySource: aws.String(a.bucketName + "/" + k),
			Key:        aws.String(dst),
		}); err != nil {
			return fmt.Errorf("failed to copy object %s: %w", k, err)
		}
		if _, err := a.client.DeleteObjectWithContext(ctx, &awss3.DeleteObjectInput{
			Bucket: aws.String(a.bucketName),
			Key:    aws.String(k),
		}); err != nil {
			return fmt.Errorf("failed to delete source object %s: %w", k, err)
		}
	}
	return nil
}

// Stat returns the entry for an object or directory prefix.
func (a *Adapter) Stat(ctx context.Context, relPath string) (*backends.Entry, error) {
	key, err := pathutil.Sanitize(relPath)
	if err != nil {
		return nil, err
	}

	if key == "" {
		// Bucket root is always a directory.
		return &backends.Entry{Name: "/", Path: "", IsDir: true}, nil
	}

	head, err := a.client.HeadObjectWithContext(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(key),
	})
	if err == nil {
		entry := &backends.Entry{
			Name: path.Base(key),
			Path: key,
		}
		if head.ContentLength != nil {
			entry.Size = *head.ContentLength
		}
		if head.LastModified != nil {
			entry.ModTime = *head.LastModified
		}
		return entry, nil
	}
	if !isS3NotFound(err) {
		return nil, fmt.Errorf("failed to head object %s: %w", key, err)
	}

	// No object at the key; a non-empty prefix means a directory.
	isDir, err := a.prefixExists(ctx, key+"/")
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, backends.ErrNotFound
	}
	return &backends.Entry{
		Name:  path.Base(key),
		Path:  key,
		IsDir: true,
	}, nil
}

// List returns the immediate children of a directory prefix, folders
// first, sorted case-insensitively by name.
func (a *Adapter) List(ctx context.Context, relPath string) ([]*backends.Entry, error) {
	key, err := pathutil.Sanitize(relPath)
	if err != nil {
		return nil, err
	}

	prefix := ""
	if key != "" {
		exists, err := a.prefixExists(ctx, key+"/")
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, backends.ErrNotFound
		}
		prefix = key + "/"
	}

	var entries []*backends.Entry
	input := &awss3.ListObjectsV2Input{
		Bucket:    aws.String(a.bucketName),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}

	err = a.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *awss3.ListObjectsV2Output, lastPage bool) bool {
			for _, cp := range page.CommonPrefixes {
				dir := strings.TrimSuffix(strings.TrimPrefix(*cp.Prefix, prefix), "/")
				entries = append(entries, &backends.Entry{
					Name:  dir,
					Path:  strings.TrimSuffix(*cp.Prefix, "/"),
					IsDir: true,
				})
			}
			for _, obj := range page.Contents {
				name := strings.TrimPrefix(*obj.Key, prefix)
				if name == "" {
					continue
				}
				entry := &backends.Entry{
					Name: name,
					Path: *obj.Key,
				}
				if obj.Size != nil {
					entry.Size = *obj.Size
				}
				if obj.LastModified != nil {
					entry.ModTime = *obj.LastModified
				}
				entries = append(entries, entry)
			}
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	return entries, nil
}

// Exists reports whether a key or directory prefix is present.
func (a *Adapter) Exists(ctx context.Context, relPath string) (bool, error) {
	key, err := pathutil.Sanitize(relPath)
	if err != nil {
		return false, err
	}
	if key == "" {
		return true, nil
	}

	if _, err := a.client.HeadObjectWithContext(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(key),
	}); err == nil {
		return true, nil
	} else if !isS3NotFound(err) {
		return false, fmt.Errorf("failed to head object %s: %w", key, err)
	}

	return a.prefixExists(ctx, key+"/")
}

// keysFor resolves a sanitized path into the object keys it covers:
// either the exact key or every key under the directory prefix.
func (a *Adapter) keysFor(ctx context.Context, key string) ([]string, error) {
	if _, err := a.client.HeadObjectWithContext(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(key),
	}); err == nil {
		return []string{key}, nil
	} else if !isS3NotFound(err) {
		return nil, fmt.Errorf("failed to head object %s: %w", key, err)
	}

	var keys []string
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(a.bucketName),
		Prefix: aws.String(key + "/"),
	}
	err := a.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *awss3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				keys = append(keys, *obj.Key)
			}
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %s: %w", key, err)
	}
	return keys, nil
}

func (a *Adapter) prefixExists(ctx context.Context, prefix string) (bool, error) {
	result, err := a.client.ListObjectsV2WithContext(ctx, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(a.bucketName),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return false, fmt.Errorf("failed to list prefix %s: %w", prefix, err)
	}
	return len(result.Contents) > 0, nil
}
