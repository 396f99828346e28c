package cmd_runner

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRunWithEnv(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := zerolog.New(buf).Level(zerolog.DebugLevel)

	err := RunWithEnv(context.Background(), &logger, []string{"SCHEMASHIFT_TEST_VALUE=forwarded"},
		"sh", "-c", `echo "$SCHEMASHIFT_TEST_VALUE"; echo oops 1>&2`,
	)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"Stdout":"forwarded"`)
	require.Contains(t, buf.String(), `"Stderr":"oops"`)
}

func TestRun_Failure(t *testing.T) {
	logger := zerolog.Nop()
	err := Run(context.Background(), &logger, "sh", "-c", "exit 3")
	require.Error(t, err)
	require.Contains(t, err.Error(), "external command runtime error")
}
