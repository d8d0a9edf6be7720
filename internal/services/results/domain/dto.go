package domain

import (
	"net/url"

	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
)

// MaxBatch bounds how many notifications one request may carry
const MaxBatch = 1000

// EventInput is an object-created event notification, trimmed to the fields ingestion reads
type EventInput struct {
	Records []EventRecord `json:"Records" validate:"required,min=1,max=1000,dive"`
}

// EventRecord is one record of an event notification
type EventRecord struct {
	EventSource string  `json:"eventSource,omitempty" example:"aws:s3"`
	EventName   string  `json:"eventName,omitempty"   example:"ObjectCreated:Put"`
	S3          EventS3 `json:"s3"                    validate:"required"`
}

// EventS3 carries the bucket and object of a record
type EventS3 struct {
	Bucket EventBucket `json:"bucket" validate:"required"`
	Object EventObject `json:"object" validate:"required"`
}

// EventBucket names the bucket
type EventBucket struct {
	Name string `json:"name" validate:"required,bucket" example:"comprehend-output"`
}

// EventObject names the object; Key arrives URL encoded with '+' for spaces
// The wire bound is three encoded characters per key byte; the decoded key is held to
// the same objectkey rule as Notification once the handler converts the batch
type EventObject struct {
	Key  string `json:"key"            validate:"required,max=3072" example:"keyPhrases/job-123/output/output.tar.gz"`
	Size int64  `json:"size,omitempty" example:"2048"`
}

// Notifications converts the event into a batch, decoding object keys
func (in EventInput) Notifications() ([]Notification, error) {
	out := make([]Notification, 0, len(in.Records))
	for i, rec := range in.Records {
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			return nil, perr.WithField(
				perr.Wrapf(err, perr.ErrorCodeValidation, "record %d: object key is not URL encoded", i),
				"Records.s3.object.key",
			)
		}
		out = append(out, Notification{Bucket: rec.S3.Bucket.Name, Key: key})
	}
	return out, nil
}

// ReplayInput is a batch of already decoded notifications
type ReplayInput struct {
	Notifications []Notification `json:"notifications" validate:"required,min=1,max=1000,dive"`
}
