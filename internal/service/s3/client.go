package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"tierdrive/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	uploadTimeout  = 10 * time.Minute
)

// Client предоставляет методы для работы с S3-совместимым хранилищем
type Client struct {
	client   *s3.Client
	presign  *s3.PresignClient
	bucket   string
	retryers RetryPolicy
}

// NewClient создает новый экземпляр клиента S3
func NewClient(conf *Config, policy RetryPolicy) (*Client, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	if conf.AccessKeyID == "" || conf.SecretAccessKey == "" || conf.Bucket == "" {
		return nil, fmt.Errorf("missing required configuration: accessKeyID, secretAccessKey, and bucket are required")
	}

	// Создаем конфигурацию AWS
	creds := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		conf.AccessKeyID,
		conf.SecretAccessKey,
		"",
	))

	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(conf.Endpoint),
		Region:       conf.Region,
		Credentials:  creds,
	})

	s3Client := &Client{
		client:   client,
		presign:  s3.NewPresignClient(client),
		bucket:   conf.Bucket,
		retryers: policy,
	}

	// Проверяем подключение к бакету
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := s3Client.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(conf.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to access bucket %s: %w", conf.Bucket, err)
	}

	return s3Client, nil
}

// awsStorageClass переводит класс хранения ядра в класс AWS SDK
func awsStorageClass(class domain.StorageClass) types.StorageClass {
	switch class {
	case domain.StorageClassStandard:
		return types.StorageClassStandard
	case domain.StorageClassStandardIA:
		return types.StorageClassStandardIa
	case domain.StorageClassOneZoneIA:
		return types.StorageClassOnezoneIa
	case domain.StorageClassGlacierInstant:
		return types.StorageClassGlacierIr
	case domain.StorageClassGlacierFlexible:
		return types.StorageClassGlacier
	case domain.StorageClassDeepArchive:
		return types.StorageClassDeepArchive
	case domain.StorageClassIntelligentTiering:
		return types.StorageClassIntelligentTiering
	default:
		// классы валидируются на входных границах
		panic(fmt.Sprintf("s3: unknown storage class %q", class))
	}
}

// Put загружает объект с указанным классом хранения
func (h *Client) Put(ctx context.Context, key string, data []byte, class domain.StorageClass) error {
	if key == "" {
		return domain.InvalidArgument("object key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	return h.retryers.Do(ctx, "put object", func() error {
		_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:       aws.String(h.bucket),
			Key:          aws.String(key),
			Body:         bytes.NewReader(data),
			StorageClass: awsStorageClass(class),
		})
		if err != nil {
			return domain.BackendUnavailable("put object to S3", err)
		}
		return nil
	})
}

// Delete удаляет объект. Отсутствующий объект считается успешно удалённым.
func (h *Client) Delete(ctx context.Context, key string) error {
	if key == "" {
		return domain.InvalidArgument("object key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return h.retryers.Do(ctx, "delete object", func() error {
		// Проверяем существование объекта перед удалением
		_, err := h.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(h.bucket),
			Key:    aws.String(key),
		})

		var notFound *types.NotFound
		if err != nil && errors.As(err, &notFound) {
			return nil
		}
		if err != nil {
			return domain.BackendUnavailable("check object existence", err)
		}

		_, err = h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(h.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return domain.BackendUnavailable("delete object from S3", err)
		}
		return nil
	})
}

// ChangeStorageClass переводит объект в другой класс хранения.
// S3 не умеет менять класс на месте: делаем копию объекта поверх себя
// с новым классом и сохранением метаданных.
func (h *Client) ChangeStorageClass(ctx context.Context, key string, class domain.StorageClass) error {
	if key == "" {
		return domain.InvalidArgument("object key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	return h.retryers.Do(ctx, "change storage class", func() error {
		_, err := h.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:            aws.String(h.bucket),
			Key:               aws.String(key),
			CopySource:        aws.String(fmt.Sprintf("%s/%s", h.bucket, key)),
			StorageClass:      awsStorageClass(class),
			MetadataDirective: types.MetadataDirectiveCopy,
		})
		if err != nil {
			var nsk *types.NoSuchKey
			if errors.As(err, &nsk) {
				return domain.NotFound("object", key)
			}
			return domain.BackendUnavailable("copy object within S3", err)
		}
		return nil
	})
}

// SignedURL выдаёт подписанную ссылку на скачивание с ограниченным сроком
func (h *Client) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", domain.InvalidArgument("object key is required")
	}

	req, err := h.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", domain.BackendUnavailable("presign object URL", err)
	}

	return req.URL, nil
}
