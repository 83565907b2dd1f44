package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type Handler struct {
	mp       MetadataProcessor
	s3Client S3Api
}

type S3ObjectInfo struct {
	Bucket string
	Key    string
	// Size is the byte length reported by the event source, when present.
	// Nil means the processor looks it up itself.
	Size *int64
	// ContentType is a hint from the event source; empty means unknown.
	ContentType string
}

// concurrency is the max number of concurrent object processing operations
const concurrency = 10

func NewHandler() (*Handler, error) {
	sess := session.Must(session.NewSession())
	config, err := LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	s3Client := s3.New(sess)
	return &Handler{mp: NewMetadataProcessor(s3Client, config), s3Client: s3Client}, nil
}

func (h *Handler) processS3Objects(ctx context.Context, s3Objects []S3ObjectInfo) error {
	// Buffered so workers never block on reporting a failure; the drain
	// below only starts once all objects have been handed out.
	errs := make(chan error, len(s3Objects))
	var wg sync.WaitGroup
	counter := SafeCounter{}
	concurrent := make(chan int, concurrency) // limit concurrent processing
	for _, s3obj := range s3Objects {
		wg.Add(1)
		concurrent <- 1
		go func(s3obj S3ObjectInfo) {
			defer func() { wg.Done(); <-concurrent }()
			err := h.mp.ProcessObject(ctx, s3obj)
			if err != nil {
				errs <- fmt.Errorf("error processing s3://%s/%s: %w", s3obj.Bucket, s3obj.Key, err)
				return
			}
			counter.Increment(1)
		}(s3obj)
	}
	go func() {
		wg.Wait()
		close(errs)
	}()
	var failures []error
	for err := range errs {
		failures = append(failures, err)
	}
	slog.Info("finished processing objects",
		"processed", counter.Value(), "failed", len(failures))

	return errors.Join(failures...)
}

func (h *Handler) HandleLambdaEvent(ctx context.Context, event S3ObjectCreatedEvent) error {
	var s3Objects []S3ObjectInfo
	for _, record := range event.Records {
		if record.S3.Bucket.Name == "" || record.S3.Object.Key == "" {
			return fmt.Errorf("invalid event: missing bucket name or object key")
		}
		// Keys in S3 notifications are URL-encoded, with '+' for spaces.
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return fmt.Errorf("invalid event: cannot decode object key %q: %w", record.S3.Object.Key, err)
		}
		s3Objects = append(s3Objects, S3ObjectInfo{
			Bucket: record.S3.Bucket.Name,
			Key:    key,
			Size:   record.S3.Object.Size,
		})
	}
	return h.processS3Objects(ctx, s3Objects)
}

// HandleS3URL backfills metadata records for every object under an
// s3://bucket/prefix URL. Objects already under the metadata prefix are
// skipped by the processor, same as in the event path.
func (h *Handler) HandleS3URL(ctx context.Context, s3URL string) error {
	bucket, prefix, err := ParseS3URL(s3URL)
	if err != nil {
		return fmt.Errorf("failed to parse S3 URL: %v", err)
	}

	var s3Objects []S3ObjectInfo
	var continuationToken *string
	for {
		resp, err := h.s3Client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return fmt.Errorf("failed to list objects: %v", err)
		}

		for _, item := range resp.Contents {
			s3Objects = append(s3Objects, S3ObjectInfo{
				Bucket: bucket,
				Key:    aws.StringValue(item.Key),
				Size:   item.Size,
			})
		}

		if resp.IsTruncated == nil || !*resp.IsTruncated {
			break
		}
		continuationToken = resp.NextContinuationToken
	}

	return h.processS3Objects(ctx, s3Objects)
}
