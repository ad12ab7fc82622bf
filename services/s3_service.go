package services

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/lettermail/go-lettermail-server/global"
	"github.com/lettermail/go-lettermail-server/types"
)

// S3Service stores attachment blobs in the configured bucket. It is the
// AttachmentStore implementation used in production.
type S3Service struct {
	env *types.Environment
}

func NewS3Service(env *types.Environment) *S3Service {
	return &S3Service{
		env: env,
	}
}

// Upload stores the attachment bytes under key and returns the stored path.
func (s3s *S3Service) Upload(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	if len(content) == 0 {
		return "", types.ErrBadRequest
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ioReader := bytes.NewReader(content)
	_, uErr := s3s.env.S3Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(global.Conf.Storage.Bucket),
		Key:         aws.String(key),
		Body:        ioReader,
		ContentType: aws.String(contentType),
	})
	if uErr != nil {
		global.Logger.Log("error", "failed to upload attachment", "key", key, "error", uErr.Error())
		return "", uErr
	}
	return key, nil
}

// Download fetches the attachment bytes for key.
func (s3s *S3Service) Download(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, types.ErrBadRequest
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := s3s.env.S3Downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(global.Conf.Storage.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3Types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// Delete removes the attachment at key, best-effort from the caller's view.
func (s3s *S3Service) Delete(ctx context.Context, key string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(global.Conf.Storage.Bucket),
		Key:    aws.String(key),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s3s.env.S3Client.DeleteObject(ctx, input)
	if err != nil {
		var noKey *s3Types.NoSuchKey
		var apiErr *smithy.GenericAPIError
		if errors.As(err, &noKey) {
			global.Logger.Log("warning", "object does not exist", "objectKey", key)
			return types.ErrNotFound
		} else if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "AccessDenied":
				global.Logger.Log("warning", "access denied", "objectKey", key)
				return types.ErrNotAuthorized
			}
			global.Logger.Log("error", "error deleting object", "error", err)
			return err
		}
		return err
	}
	return nil
}
