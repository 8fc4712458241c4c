package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"homecare/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file exceeds the upload limit")
)

// Content type allow-lists used by the upload boundary.
var (
	PDFOnly         = []string{"application/pdf"}
	ImagesAndPDF    = []string{"image/", "application/pdf"}
	defaultMaxBytes = int64(20 << 20)
)

// ObjectAPI is the subset of *s3.Client the storage uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage turns raw uploads into stable object keys.
type S3Storage struct {
	client   ObjectAPI
	bucket   string
	maxBytes int64
}

func NewS3Storage(client ObjectAPI, bucket string, maxBytes int64) *S3Storage {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	return &S3Storage{
		client:   client,
		bucket:   bucket,
		maxBytes: maxBytes,
	}
}

// Store uploads header under prefix and returns the object key. allowed
// holds MIME types or prefixes ending in "/"; empty allows anything.
func (s *S3Storage) Store(ctx context.Context, prefix string, header *multipart.FileHeader, allowed []string) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload %s: %w", header.Filename, err)
	}

	if int64(len(data)) > s.maxBytes {
		return "", ErrFileTooLarge
	}

	detected := mimetype.Detect(data)
	if !isAllowed(detected, allowed) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, detected.String())
	}

	key := path.Join(prefix, utils.NanoID()+detected.Extension())

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(detected.String()),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3: %w", header.Filename, err)
	}

	return key, nil
}

// Delete removes a stored object. Used to clean up uploads of a submission
// that was rejected after its files were stored.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	return utils.ErrorWrapOrNil(err, fmt.Sprintf("failed to delete %s from s3", key))
}

func isAllowed(detected *mimetype.MIME, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}

	for _, a := range allowed {
		if strings.HasSuffix(a, "/") {
			if strings.HasPrefix(detected.String(), a) {
				return true
			}
			continue
		}
		if detected.Is(a) {
			return true
		}
	}

	return false
}
