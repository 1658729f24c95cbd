package qrcode

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesDecodablePNG(t *testing.T) {
	data, err := Render("https://syng.example/ABCD", Options{BoxSize: 4})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 21*4, img.Bounds().Dx())
	assert.Equal(t, 21*4, img.Bounds().Dy())
}

func TestRenderDefaultsBoxSize(t *testing.T) {
	data, err := Render("room", Options{})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 21*8, img.Bounds().Dx())
}

func TestRenderIsDeterministic(t *testing.T) {
	a, err := Render("same content", Options{BoxSize: 2})
	require.NoError(t, err)
	b, err := Render("same content", Options{BoxSize: 2})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
