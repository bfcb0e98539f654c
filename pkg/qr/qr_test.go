package qr_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrinehq/vitrine/pkg/qr"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestPNG(t *testing.T) {
	t.Parallel()

	png, err := qr.PNG("https://wa.me/5511987654321", 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestPNGEmptyContent(t *testing.T) {
	t.Parallel()

	_, err := qr.PNG("", 128)
	assert.ErrorIs(t, err, qr.ErrEmptyContent)
}

func TestPNGSizeFallback(t *testing.T) {
	t.Parallel()

	png, err := qr.PNG("hello", -5)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))

	png, err = qr.PNG("hello", 100000)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}
