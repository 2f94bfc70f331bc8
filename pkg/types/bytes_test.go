package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes_Humanized_Boundaries(t *testing.T) {
	cases := []struct {
		in   Bytes
		want string
	}{
		{Bytes(0), "0 B"},
		{Bytes(1023), "1023 B"},
		{Bytes(1024), "1.00 KB"},
		{Bytes(1536), "1.50 KB"},
		{Bytes(1024 * 1024), "1.00 MB"},
		{Bytes(1024 * 1024 * 1024), "1.00 GB"},
		{Bytes(1 << 40), "1.00 TB"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%d_%d", i, uint64(tc.in)), func(t *testing.T) {
			require.Equal(t, tc.want, tc.in.Humanized())
		})
	}
}

func TestBytes_UnitAccessors(t *testing.T) {
	assert.InDelta(t, 1.0, Bytes(1024).KB(), 1e-12)
	assert.InDelta(t, 1.0, Bytes(1<<20).MB(), 1e-12)
	assert.InDelta(t, 1.0, Bytes(1<<30).GB(), 1e-12)
	assert.InDelta(t, 1.5, Bytes(1536).KB(), 1e-12)
}

func TestBytes_MiBTruncates(t *testing.T) {
	assert.Equal(t, uint64(0), Bytes(1<<20-1).MiB())
	assert.Equal(t, uint64(1), Bytes(1<<20).MiB())
	assert.Equal(t, uint64(1), Bytes(2<<20-1).MiB())
	assert.Equal(t, uint64(512), Bytes(512<<20).MiB())
}

func TestBytes_Uint64RoundTrip(t *testing.T) {
	assert.Equal(t, uint64(123456789), Bytes(123456789).Uint64())
}
