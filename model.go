package main

type S3Record struct {
	S3 struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key  string `json:"key"`
			Size *int64 `json:"size,omitempty"`
		} `json:"object"`
	} `json:"s3"`
}

type S3ObjectCreatedEvent struct {
	Records []S3Record `json:"Records"`
}

// MetadataRecord is the JSON document written back to the bucket under the
// metadata prefix, one per source object. Image fields are present only
// when the source decodes as an image.
type MetadataRecord struct {
	FileName         string `json:"fileName"`
	BucketName       string `json:"bucketName"`
	FileSize         int64  `json:"fileSize"`
	FileSizeReadable string `json:"fileSizeReadable"`
	ContentType      string `json:"contentType"`
	LastModified     string `json:"lastModified"`
	ETag             string `json:"etag,omitempty"`
	UploadTime       string `json:"uploadTime"`
	ImageWidth       int    `json:"imageWidth,omitempty"`
	ImageHeight      int    `json:"imageHeight,omitempty"`
	ImageFormat      string `json:"imageFormat,omitempty"`
	ImageMode        string `json:"imageMode,omitempty"`
	ProcessedBy      string `json:"processedBy"`
}
