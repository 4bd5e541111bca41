package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/wolfman30/prism-crm/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store keeps raw webhook deliveries in S3 so failed mappings can be replayed.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		bucket:   strings.TrimSpace(bucket),
		s3Client: s3Client,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// ObjectKey is where a record received at ts is stored:
// webhooks/v1/<source>/<outcome>/YYYY/MM/DD/<id>.json
func ObjectKey(source, outcome string, ts time.Time, id string) string {
	return fmt.Sprintf("webhooks/v1/%s/%s/%d/%02d/%02d/%s.json",
		strings.ToLower(source), outcome, ts.Year(), ts.Month(), ts.Day(), id)
}

// ArchivePayload writes one delivery and returns its object key.
// Source and Outcome must be set on rec.
func (s *Store) ArchivePayload(ctx context.Context, rec PayloadRecord, body []byte) (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	rec.Version = "1.0"
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = s.now()
	}
	if json.Valid(body) {
		rec.Payload = json.RawMessage(body)
	} else {
		rec.RawBody = string(body)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("archive: marshal record: %w", err)
	}

	key := ObjectKey(rec.Source, rec.Outcome, rec.ReceivedAt, uuid.NewString())
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Info("archived webhook payload",
		"source", rec.Source,
		"outcome", rec.Outcome,
		"s3_key", key,
	)
	return key, nil
}
