package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greenmaskio/schemashift/internal/domains"
	"github.com/greenmaskio/schemashift/internal/storages/directory"
)

func TestGetStorage(t *testing.T) {
	ctx := context.Background()
	logCfg := &domains.LogConfig{Level: "info"}

	dir := t.TempDir()
	st, err := GetStorage(ctx, &domains.StorageConfig{
		Type:      domains.StorageTypeDirectory,
		Directory: &directory.Config{Path: dir},
	}, logCfg)
	require.NoError(t, err)
	require.Equal(t, dir, st.GetCwd())

	_, err = GetStorage(ctx, &domains.StorageConfig{Type: "ftp"}, logCfg)
	require.Error(t, err)

	_, err = GetStorage(ctx, &domains.StorageConfig{Type: domains.StorageTypeS3}, logCfg)
	require.Error(t, err)
}
