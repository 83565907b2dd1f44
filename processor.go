package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
)

type MetadataProcessor interface {
	ProcessObject(ctx context.Context, s3Object S3ObjectInfo) error
}

type S3Api interface {
	HeadObjectWithContext(ctx aws.Context, input *s3.HeadObjectInput, opts ...request.Option) (*s3.HeadObjectOutput, error)
	GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
	ListObjectsV2WithContext(ctx aws.Context, input *s3.ListObjectsV2Input, opts ...request.Option) (*s3.ListObjectsV2Output, error)
}

type S3MetadataProcessor struct {
	s3Client S3Api
	config   Config
	now      func() time.Time
}

func NewMetadataProcessor(s3Client S3Api, config Config) *S3MetadataProcessor {
	return &S3MetadataProcessor{
		s3Client: s3Client,
		config:   config,
		now:      time.Now,
	}
}

// ProcessObject runs one linear pass for a single created object: look up
// its attributes, optionally inspect it as an image, and write one
// MetadataRecord to the derived key in the same bucket. Invocations are
// independent; nothing is shared across calls.
func (mp *S3MetadataProcessor) ProcessObject(ctx context.Context, s3Object S3ObjectInfo) error {

	// Records land under the metadata prefix and generate their own
	// object-created events. Skipping them here breaks the loop.
	if strings.HasPrefix(s3Object.Key, mp.config.MetadataPrefix) {
		slog.Info("skipping object under metadata prefix",
			"bucket", s3Object.Bucket, "key", s3Object.Key)
		return nil
	}

	slog.Info("processing object", "bucket", s3Object.Bucket, "key", s3Object.Key)

	head, err := mp.s3Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s3Object.Bucket),
		Key:    aws.String(s3Object.Key),
	})
	if err != nil {
		slog.Error("failed to look up object attributes",
			"bucket", s3Object.Bucket, "key", s3Object.Key, "error", err)
		return fmt.Errorf("failed to look up attributes of s3://%s/%s: %w", s3Object.Bucket, s3Object.Key, err)
	}

	size := aws.Int64Value(head.ContentLength)
	if s3Object.Size != nil {
		size = *s3Object.Size
	}
	contentType := s3Object.ContentType
	if contentType == "" {
		contentType = aws.StringValue(head.ContentType)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	record := MetadataRecord{
		FileName:         s3Object.Key,
		BucketName:       s3Object.Bucket,
		FileSize:         size,
		FileSizeReadable: FormatBytes(size),
		ContentType:      contentType,
		LastModified:     aws.TimeValue(head.LastModified).UTC().Format(time.RFC3339),
		ETag:             strings.Trim(aws.StringValue(head.ETag), `"`),
		UploadTime:       mp.now().UTC().Format(time.RFC3339),
		ProcessedBy:      mp.config.ProcessedBy,
	}

	if isImageObject(s3Object.Key, contentType) {
		info, err := mp.inspectObjectImage(ctx, s3Object)
		if err != nil {
			// A record without dimensions is still a valid record.
			slog.Warn("could not extract image dimensions",
				"bucket", s3Object.Bucket, "key", s3Object.Key, "error", err)
		} else {
			record.ImageWidth = info.Width
			record.ImageHeight = info.Height
			record.ImageFormat = info.Format
			record.ImageMode = info.Mode
		}
	}

	body, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata record for s3://%s/%s: %w", s3Object.Bucket, s3Object.Key, err)
	}

	destKey := MetadataKey(s3Object.Key, mp.config.MetadataPrefix)
	_, err = mp.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s3Object.Bucket),
		Key:         aws.String(destKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		slog.Error("failed to write metadata record",
			"bucket", s3Object.Bucket, "key", s3Object.Key, "destination", destKey, "error", err)
		return fmt.Errorf("failed to write metadata record to s3://%s/%s: %w", s3Object.Bucket, destKey, err)
	}

	slog.Info("metadata record written",
		"bucket", s3Object.Bucket, "key", s3Object.Key, "destination", destKey)

	return nil
}

// inspectObjectImage downloads the object to a temporary file and decodes
// its header. The temporary file is removed on every exit path, including
// mid-download cancellation.
func (mp *S3MetadataProcessor) inspectObjectImage(ctx context.Context, s3Object S3ObjectInfo) (imageInfo, error) {
	obj, err := mp.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s3Object.Bucket),
		Key:    aws.String(s3Object.Key),
	})
	if err != nil {
		return imageInfo{}, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Body.Close()

	tmp, err := os.CreateTemp("", "metadata-image-*"+path.Ext(s3Object.Key))
	if err != nil {
		return imageInfo{}, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, copyErr := io.Copy(tmp, obj.Body)
	if err := tmp.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		return imageInfo{}, fmt.Errorf("failed to download object to temporary file: %w", copyErr)
	}

	return inspectImage(tmp.Name())
}
