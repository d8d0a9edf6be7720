package errors

// Object store helpers for mapping minio-go responses to project ErrorCode

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
)

// ObjectErrorCode maps an S3 error response to an ErrorCode with an ok flag
// !ok means err carried no S3 error response
func ObjectErrorCode(err error) (ErrorCode, bool) {
	var resp minio.ErrorResponse
	if !stderrs.As(err, &resp) || (resp.Code == "" && resp.StatusCode == 0) {
		return ErrorCodeUnknown, false
	}

	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NoSuchObject":
		return ErrorCodeNotFound, true
	case "SlowDown", "SlowDownRead", "SlowDownWrite", "ServiceUnavailable",
		"RequestTimeout", "InternalError", "XMinioServerNotInitialized":
		return ErrorCodeUnavailable, true
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "EntityTooLarge",
		"InvalidBucketName", "XMinioStorageFull", "QuotaExceeded":
		return ErrorCodeStorageWrite, true
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrorCodeNotFound, true
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return ErrorCodeUnavailable, true
	case resp.StatusCode >= 400:
		return ErrorCodeStorageWrite, true
	}
	return ErrorCodeUnknown, false
}

// FromObjectStore wraps an object store error with a mapped code
// fallback applies when the error carries no S3 response (dial errors, local I/O)
func FromObjectStore(err error, fallback ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrorCodeUnavailable, msg)
	}
	if code, ok := ObjectErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, fallback, msg)
}

// FromObjectStoref is the formatted variant of FromObjectStore
func FromObjectStoref(err error, fallback ErrorCode, format string, a ...any) error {
	return FromObjectStore(err, fallback, fmt.Sprintf(format, a...))
}
