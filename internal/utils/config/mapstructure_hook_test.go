package config

import (
	"testing"

	"github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenmaskio/schemashift/internal/domains"
)

type testTarget struct {
	SearchPath domains.SearchPath `mapstructure:"search_path"`
	Schemas    []string           `mapstructure:"schemas"`
}

func decode(t *testing.T, input map[string]any) *testTarget {
	res := &testTarget{}
	cfg := &mapstructure.DecoderConfig{Result: res}
	DecoderConfig(cfg)
	dec, err := mapstructure.NewDecoder(cfg)
	require.NoError(t, err)
	require.NoError(t, dec.Decode(input))
	return res
}

func TestSearchPathHookFunc(t *testing.T) {
	res := decode(t, map[string]any{"search_path": `tenant, "public"`})
	assert.Equal(t, domains.SearchPath{"tenant", "public"}, res.SearchPath)

	res = decode(t, map[string]any{"search_path": []any{"a", "b"}})
	assert.Equal(t, domains.SearchPath{"a", "b"}, res.SearchPath)
}

func TestSliceHooks(t *testing.T) {
	res := decode(t, map[string]any{"schemas": `["public","external"]`})
	assert.Equal(t, []string{"public", "external"}, res.Schemas)

	res = decode(t, map[string]any{"schemas": "public,external"})
	assert.Equal(t, []string{"public", "external"}, res.Schemas)
}
