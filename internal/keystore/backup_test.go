package keystore

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techconhub/messaging/internal/common"
)

func TestBackup_RoundTrip(t *testing.T) {
	src := setupStore(t)
	ctx := context.Background()

	k1, err := src.GetOrCreate(ctx, "conv-1")
	require.NoError(t, err)
	k2, err := src.GetOrCreate(ctx, "conv-2")
	require.NoError(t, err)

	backup, err := src.Export(ctx, []byte("pa55word"))
	require.NoError(t, err)
	assert.NotEmpty(t, backup.Salt)
	assert.NotEmpty(t, backup.IV)
	assert.NotEmpty(t, backup.Data)

	// fresh device
	dst := setupStore(t)
	require.NoError(t, dst.Import(ctx, backup, []byte("pa55word")))

	got1, err := dst.Retrieve(ctx, "conv-1")
	require.NoError(t, err)
	got2, err := dst.Retrieve(ctx, "conv-2")
	require.NoError(t, err)

	assert.Equal(t, k1, got1)
	assert.Equal(t, k2, got2)
}

func TestBackup_ImportOverwritesDivergedKey(t *testing.T) {
	src := setupStore(t)
	ctx := context.Background()

	orig, err := src.GetOrCreate(ctx, "conv-1")
	require.NoError(t, err)

	backup, err := src.Export(ctx, []byte("pw"))
	require.NoError(t, err)

	// the new device independently generated its own (useless) key
	dst := setupStore(t)
	_, err = dst.GetOrCreate(ctx, "conv-1")
	require.NoError(t, err)

	require.NoError(t, dst.Import(ctx, backup, []byte("pw")))

	got, err := dst.Retrieve(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestBackup_WrongPassword(t *testing.T) {
	src := setupStore(t)
	ctx := context.Background()

	_, err := src.GetOrCreate(ctx, "conv-1")
	require.NoError(t, err)

	backup, err := src.Export(ctx, []byte("right"))
	require.NoError(t, err)

	dst := setupStore(t)
	err = dst.Import(ctx, backup, []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrWrongBackupPassword)

	// nothing was imported
	_, err = dst.Retrieve(ctx, "conv-1")
	assert.ErrorIs(t, err, common.ErrKeyNotFound)
}

func TestBackup_MalformedPayload(t *testing.T) {
	dst := setupStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		backup *Backup
	}{
		{"bad salt", &Backup{Salt: "%%%", IV: "AAAA", Data: "AAAA"}},
		{"bad iv", &Backup{Salt: "AAAA", IV: "%%%", Data: "AAAA"}},
		{"bad data", &Backup{Salt: "AAAA", IV: "AAAA", Data: "%%%"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := dst.Import(ctx, tc.backup, []byte("pw"))
			assert.ErrorIs(t, err, common.ErrMalformedBackup)
		})
	}
}

func TestBackup_EncryptedPayloadIsOpaque(t *testing.T) {
	src := setupStore(t)
	ctx := context.Background()

	key, err := src.GetOrCreate(ctx, "conv-1")
	require.NoError(t, err)

	backup, err := src.Export(ctx, []byte("pw"))
	require.NoError(t, err)

	// the stored base64 form of the key must not appear in the exported blob
	assert.NotContains(t, backup.Data, base64.StdEncoding.EncodeToString(key))
}
