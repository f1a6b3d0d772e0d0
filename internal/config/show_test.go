package config

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEffective_RedactsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Account = AccountConfig{
		Hostname:     "acme.sharefile.com",
		ClientID:     "cid",
		ClientSecret: "very-secret",
		Username:     "me@example.com",
		Password:     "hunter2",
	}

	r, err := newResolved(cfg, "/etc/sharefile-go/config.toml")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderEffective(r, &buf))

	out := buf.String()
	assert.Contains(t, out, "/etc/sharefile-go/config.toml")
	assert.Contains(t, out, `"acme.sharefile.com"`)
	assert.Contains(t, out, redacted)
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "very-secret")
	assert.Contains(t, out, "# two halves")

	for _, section := range []string{"[account]", "[transfers]", "[logging]", "[network]"} {
		assert.Contains(t, out, section)
	}
}

func TestRenderEffective_ChunkBytes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transfers.ChunkSize = "1MiB"

	r, err := newResolved(cfg, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderEffective(r, &buf))
	assert.Contains(t, buf.String(), "# 1048576 bytes")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRenderEffective_WriteError(t *testing.T) {
	r, err := newResolved(DefaultConfig(), "")
	require.NoError(t, err)

	require.EqualError(t, RenderEffective(r, failWriter{}), "disk full")
}
