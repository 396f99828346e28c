package directory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/greenmaskio/schemashift/internal/storages"
)

type DirectorySuite struct {
	suite.Suite
	st *Storage
}

func (suite *DirectorySuite) SetupTest() {
	var err error
	suite.st, err = NewStorage(&Config{Path: suite.T().TempDir()})
	suite.Require().NoError(err)
}

func (suite *DirectorySuite) TestPutObject() {
	ctx := context.Background()
	err := suite.st.PutObject(ctx, "schema/app-schema.sql", bytes.NewBufferString("CREATE TABLE t();"))
	suite.Require().NoError(err)

	exists, err := suite.st.Exists(ctx, "schema/app-schema.sql")
	suite.Require().NoError(err)
	suite.True(exists)

	r, err := suite.st.GetObject(ctx, "schema/app-schema.sql")
	suite.Require().NoError(err)
	defer r.Close()
	data, err := io.ReadAll(r)
	suite.Require().NoError(err)
	suite.Equal("CREATE TABLE t();", string(data))

	stat, err := suite.st.Stat(ctx, "schema/app-schema.sql")
	suite.Require().NoError(err)
	suite.True(stat.Exist)
	suite.EqualValues(17, stat.Size)
}

func (suite *DirectorySuite) TestPutObjectOverwrites() {
	ctx := context.Background()
	suite.Require().NoError(suite.st.PutObject(ctx, "dump.sql", bytes.NewBufferString("long content")))
	suite.Require().NoError(suite.st.PutObject(ctx, "dump.sql", bytes.NewBufferString("short")))

	stat, err := suite.st.Stat(ctx, "dump.sql")
	suite.Require().NoError(err)
	suite.EqualValues(5, stat.Size)
}

func (suite *DirectorySuite) TestMissingObject() {
	ctx := context.Background()
	exists, err := suite.st.Exists(ctx, "missing.sql")
	suite.Require().NoError(err)
	suite.False(exists)

	stat, err := suite.st.Stat(ctx, "missing.sql")
	suite.Require().NoError(err)
	suite.False(stat.Exist)

	_, err = suite.st.GetObject(ctx, "missing.sql")
	suite.Require().ErrorIs(err, storages.ErrFileNotFound)
}

func (suite *DirectorySuite) TestSubStorageAndDelete() {
	ctx := context.Background()
	sub := suite.st.SubStorage("schema", true)
	suite.Require().NoError(sub.PutObject(ctx, "a.sql", bytes.NewBufferString("a")))

	exists, err := suite.st.Exists(ctx, "schema/a.sql")
	suite.Require().NoError(err)
	suite.True(exists)

	suite.Require().NoError(suite.st.Delete(ctx, "schema"))
	exists, err = sub.Exists(ctx, "a.sql")
	suite.Require().NoError(err)
	suite.False(exists)
}

func (suite *DirectorySuite) TestNewStorageRejectsFile() {
	ctx := context.Background()
	suite.Require().NoError(suite.st.PutObject(ctx, "file", bytes.NewBufferString("x")))
	_, err := NewStorage(&Config{Path: suite.st.GetCwd() + "/file"})
	suite.Require().Error(err)
}

func TestDirectoryStorage(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}
