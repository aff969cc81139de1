// Package storage hands out presigned S3 URLs for the call letter PDF. The
// server never proxies the file itself.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// URLExpiry is how long a presigned URL stays valid.
const URLExpiry = 15 * time.Minute

const keyPrefix = "calls/"

var (
	// ErrNotConfigured is returned when no bucket is configured.
	ErrNotConfigured = errors.New("asset storage is not configured")
	// ErrInvalidKey rejects keys outside the call letter prefix.
	ErrInvalidKey = errors.New("invalid asset key")
)

// Options mirrors the S3_* settings.
type Options struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Bucket       string
}

// Upload is a presigned PUT plus the key the object will live under.
type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Presigner signs URLs locally; it does not talk to S3.
type Presigner struct {
	client *s3.PresignClient
	bucket string
	now    func() time.Time
}

// NewPresigner returns ErrNotConfigured when opts has no bucket.
func NewPresigner(ctx context.Context, opts Options) (*Presigner, error) {
	if opts.Bucket == "" {
		return nil, ErrNotConfigured
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return &Presigner{client: s3.NewPresignClient(client), bucket: opts.Bucket, now: time.Now}, nil
}

func (p *Presigner) newKey() string {
	d := p.now().UTC()
	return fmt.Sprintf("%s%d/%02d/%02d/%s.pdf", keyPrefix, d.Year(), d.Month(), d.Day(), uuid.NewString())
}

// PresignUpload signs a PUT for a fresh PDF key.
func (p *Presigner) PresignUpload(ctx context.Context) (*Upload, error) {
	key := p.newKey()
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("application/pdf"),
	}, s3.WithPresignExpires(URLExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}
	return &Upload{Key: key, URL: req.URL, ExpiresAt: p.now().Add(URLExpiry)}, nil
}

// PresignView signs a GET for a key previously returned by PresignUpload.
func (p *Presigner) PresignView(ctx context.Context, key string) (string, error) {
	if !strings.HasPrefix(key, keyPrefix) || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	req, err := p.client.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(URLExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
