// Copyright 2025 Greenmask
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package s3

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/defaults"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/greenmaskio/schemashift/internal/storages"
	"github.com/greenmaskio/schemashift/internal/storages/domains"
)

const (
	awsErrorCodeNotFound  = "NotFound"
	awsErrorCodeNoSuchKey = "NoSuchKey"
)

const (
	contentTypeSql  = "application/sql"
	contentTypeGzip = "application/gzip"
)

type Storage struct {
	config   *Config
	service  s3iface.S3API
	uploader s3manageriface.UploaderAPI
	prefix   string
}

func NewStorage(ctx context.Context, cfg *Config, logLevel string) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ses, err := newSession(cfg)
	if err != nil {
		return nil, err
	}
	awsCfg, err := newAwsConfig(ctx, ses, cfg, logLevel)
	if err != nil {
		return nil, err
	}

	service := s3.New(ses, awsCfg)
	uploader := s3manager.NewUploaderWithClient(service, func(u *s3manager.Uploader) {
		u.PartSize = cfg.MaxPartSize
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
	})

	log.Debug().
		Str("Region", aws.StringValue(service.Config.Region)).
		Str("Bucket", cfg.Bucket).
		Str("Prefix", cfg.Prefix).
		Msg("dump bucket configured")

	return &Storage{
		prefix:   fixPrefix(cfg.Prefix),
		config:   cfg,
		service:  service,
		uploader: uploader,
	}, nil
}

// newSession - session with the custom CA bundle when cert_file is set
func newSession(cfg *Config) (*session.Session, error) {
	if cfg.CertFile == "" {
		ses, err := session.NewSession()
		if err != nil {
			return nil, fmt.Errorf("cannot create aws session: %w", err)
		}
		return ses, nil
	}

	bundle, err := os.Open(cfg.CertFile)
	if err != nil {
		return nil, fmt.Errorf("cannot open cert file: %w", err)
	}
	defer bundle.Close()
	ses, err := session.NewSessionWithOptions(session.Options{CustomCABundle: bundle})
	if err != nil {
		return nil, fmt.Errorf("cannot create aws session with cert file %s: %w", cfg.CertFile, err)
	}
	return ses, nil
}

func newAwsConfig(ctx context.Context, ses *session.Session, cfg *Config, logLevel string) (*aws.Config, error) {
	awsCfg := aws.NewConfig().
		WithS3ForcePathStyle(cfg.ForcePathStyle).
		WithS3UseAccelerate(cfg.UseAccelerate).
		WithLogger(LogWrapper{logger: &log.Logger}).
		WithLogLevel(aws.LogOff)
	request.WithRetryer(awsCfg, client.DefaultRetryer{NumMaxRetries: cfg.MaxRetries})

	if logLevel == zerolog.LevelDebugValue {
		awsCfg.WithLogLevel(aws.LogDebug | aws.LogDebugWithRequestErrors | aws.LogDebugWithRequestRetries)
	}
	if cfg.Endpoint != "" {
		awsCfg.WithEndpoint(cfg.Endpoint)
	}
	if cfg.Region != "" {
		awsCfg.WithRegion(cfg.Region)
	}
	if cfg.NoVerifySsl {
		awsCfg.WithHTTPClient(&http.Client{
			Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
		})
	}

	value, err := staticCredentials(ctx, ses, cfg)
	if err != nil {
		return nil, err
	}
	if value != nil {
		// static keys first, then the usual environment and instance profile lookups
		providers := append(
			[]credentials.Provider{&credentials.StaticProvider{Value: *value}},
			defaults.CredProviders(awsCfg, defaults.Handlers())...,
		)
		awsCfg.WithCredentials(credentials.NewCredentials(&credentials.ChainProvider{
			VerboseErrors: aws.BoolValue(awsCfg.CredentialsChainVerboseErrors),
			Providers:     providers,
		}))
	}
	return awsCfg, nil
}

// staticCredentials - keys from the config or from the assumed role. Nil means the default chain.
func staticCredentials(ctx context.Context, ses *session.Session, cfg *Config) (*credentials.Value, error) {
	value := &credentials.Value{
		AccessKeyID:     cfg.AccessKeyId,
		SecretAccessKey: cfg.SecretAccessKey,
		SessionToken:    cfg.SessionToken,
	}
	if cfg.RoleArn != "" {
		out, err := sts.New(ses).AssumeRoleWithContext(ctx, &sts.AssumeRoleInput{
			RoleArn:         aws.String(cfg.RoleArn),
			RoleSessionName: aws.String(cfg.SessionName),
		})
		if err != nil {
			return nil, fmt.Errorf("cannot assume role %s: %w", cfg.RoleArn, err)
		}
		value.AccessKeyID = aws.StringValue(out.Credentials.AccessKeyId)
		value.SecretAccessKey = aws.StringValue(out.Credentials.SecretAccessKey)
		value.SessionToken = aws.StringValue(out.Credentials.SessionToken)
	}
	if value.AccessKeyID == "" || value.SecretAccessKey == "" {
		return nil, nil
	}
	return value, nil
}

func (s *Storage) key(filePath string) *string {
	return aws.String(path.Join(s.prefix, filePath))
}

func (s *Storage) GetCwd() string {
	return s.prefix
}

func (s *Storage) GetObject(ctx context.Context, filePath string) (io.ReadCloser, error) {
	obj, err := s.service.GetObjectWithContext(
		ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.config.Bucket),
			Key:    s.key(filePath),
		},
	)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", filePath, storages.ErrFileNotFound)
		}
		return nil, fmt.Errorf("cannot get %s: %w", filePath, err)
	}
	return obj.Body, nil
}

func (s *Storage) PutObject(ctx context.Context, filePath string, body io.Reader) error {
	input := &s3manager.UploadInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         s.key(filePath),
		Body:        body,
		ContentType: aws.String(contentTypeSql),
	}
	if path.Ext(filePath) == ".gz" {
		input.ContentType = aws.String(contentTypeGzip)
	}
	if s.config.StorageClass != "" {
		input.StorageClass = aws.String(s.config.StorageClass)
	}
	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		return fmt.Errorf("cannot upload %s: %w", filePath, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, filePaths ...string) error {
	if len(filePaths) == 0 {
		return nil
	}
	ids := make([]*s3.ObjectIdentifier, 0, len(filePaths))
	for _, fp := range filePaths {
		ids = append(ids, &s3.ObjectIdentifier{Key: s.key(fp)})
	}
	_, err := s.service.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.config.Bucket),
		Delete: &s3.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("cannot delete %d object(s): %w", len(filePaths), err)
	}
	return nil
}

func (s *Storage) SubStorage(subPath string, relative bool) storages.Storager {
	prefix := subPath
	if relative {
		prefix = path.Join(s.prefix, prefix)
	}
	return &Storage{
		config:   s.config,
		service:  s.service,
		uploader: s.uploader,
		prefix:   fixPrefix(prefix),
	}
}

func (s *Storage) Exists(ctx context.Context, fileName string) (bool, error) {
	stat, err := s.Stat(ctx, fileName)
	if err != nil {
		return false, err
	}
	return stat.Exist, nil
}

func (s *Storage) Stat(ctx context.Context, fileName string) (*domains.ObjectStat, error) {
	fullPath := path.Join(s.prefix, fileName)
	out, err := s.service.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(fullPath),
	})
	if err != nil {
		if isNotFound(err) {
			return &domains.ObjectStat{Name: fullPath}, nil
		}
		return nil, fmt.Errorf("cannot stat %s: %w", fileName, err)
	}

	return &domains.ObjectStat{
		Name:         fullPath,
		Size:         aws.Int64Value(out.ContentLength),
		LastModified: aws.TimeValue(out.LastModified),
		Exist:        true,
	}, nil
}

func isNotFound(err error) bool {
	var awsErr awserr.Error
	return errors.As(err, &awsErr) &&
		(awsErr.Code() == awsErrorCodeNotFound || awsErr.Code() == awsErrorCodeNoSuchKey)
}

func fixPrefix(prefix string) string {
	if prefix != "" && prefix[len(prefix)-1] != '/' {
		prefix = prefix + "/"
	}
	return prefix
}
