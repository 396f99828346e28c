package s3

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenmaskio/schemashift/internal/storages"
)

type serviceStub struct {
	s3iface.S3API
	objects map[string][]byte
	deleted []string
}

func (s *serviceStub) HeadObjectWithContext(
	_ aws.Context, in *s3.HeadObjectInput, _ ...request.Option,
) (*s3.HeadObjectOutput, error) {
	data, ok := s.objects[*in.Key]
	if !ok {
		return nil, awserr.New(awsErrorCodeNotFound, "not found", nil)
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(data))),
		LastModified:  aws.Time(time.Unix(0, 0)),
	}, nil
}

func (s *serviceStub) GetObjectWithContext(
	_ aws.Context, in *s3.GetObjectInput, _ ...request.Option,
) (*s3.GetObjectOutput, error) {
	data, ok := s.objects[*in.Key]
	if !ok {
		return nil, awserr.New(awsErrorCodeNoSuchKey, "no such key", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (s *serviceStub) DeleteObjectsWithContext(
	_ aws.Context, in *s3.DeleteObjectsInput, _ ...request.Option,
) (*s3.DeleteObjectsOutput, error) {
	for _, o := range in.Delete.Objects {
		s.deleted = append(s.deleted, *o.Key)
		delete(s.objects, *o.Key)
	}
	return &s3.DeleteObjectsOutput{}, nil
}

type uploaderStub struct {
	service      *serviceStub
	classes      []string
	contentTypes []string
}

func (u *uploaderStub) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return u.UploadWithContext(context.Background(), in, opts...)
}

func (u *uploaderStub) UploadWithContext(
	_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader),
) (*s3manager.UploadOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	u.service.objects[*in.Key] = data
	u.classes = append(u.classes, aws.StringValue(in.StorageClass))
	u.contentTypes = append(u.contentTypes, aws.StringValue(in.ContentType))
	return &s3manager.UploadOutput{}, nil
}

func newTestStorage() (*Storage, *serviceStub, *uploaderStub) {
	svc := &serviceStub{objects: map[string][]byte{}}
	up := &uploaderStub{service: svc}
	cfg := NewConfig()
	cfg.Bucket = "dumps"
	return &Storage{
		config:   cfg,
		service:  svc,
		uploader: up,
		prefix:   fixPrefix("backups"),
	}, svc, up
}

func TestStorage_PutAndStat(t *testing.T) {
	ctx := context.Background()
	st, svc, up := newTestStorage()

	sub := st.SubStorage("schema", true)
	require.Equal(t, "backups/schema/", sub.GetCwd())

	require.NoError(t, sub.PutObject(ctx, "app-schema.sql", bytes.NewBufferString("CREATE TABLE t();")))
	assert.Contains(t, svc.objects, "backups/schema/app-schema.sql")
	require.NoError(t, sub.PutObject(ctx, "app-schema.sql.gz", bytes.NewBufferString("gz")))
	assert.Equal(t, []string{defaultStorageClass, defaultStorageClass}, up.classes)
	assert.Equal(t, []string{contentTypeSql, contentTypeGzip}, up.contentTypes)

	stat, err := sub.Stat(ctx, "app-schema.sql")
	require.NoError(t, err)
	assert.True(t, stat.Exist)
	assert.EqualValues(t, 17, stat.Size)

	exists, err := st.Exists(ctx, "schema/app-schema.sql")
	require.NoError(t, err)
	assert.True(t, exists)

	r, err := st.GetObject(ctx, "schema/app-schema.sql")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE t();", string(data))
}

func TestStorage_Missing(t *testing.T) {
	ctx := context.Background()
	st, _, _ := newTestStorage()

	exists, err := st.Exists(ctx, "nope.sql")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = st.GetObject(ctx, "nope.sql")
	require.ErrorIs(t, err, storages.ErrFileNotFound)
}

func TestStorage_Delete(t *testing.T) {
	ctx := context.Background()
	st, svc, _ := newTestStorage()
	require.NoError(t, st.PutObject(ctx, "a.sql", bytes.NewBufferString("a")))

	require.NoError(t, st.Delete(ctx, "a.sql"))
	assert.Equal(t, []string{"backups/a.sql"}, svc.deleted)
	require.NoError(t, st.Delete(ctx))
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewConfig()
	require.Error(t, cfg.Validate())
	cfg.Bucket = "b"
	require.NoError(t, cfg.Validate())
}
