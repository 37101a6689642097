package services

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadImageFromDataURI(t *testing.T) {
	is := NewImageService(nil)
	uri := EncodeDataURI("image/png", encodeTestPNG(t, 8, 4))

	data, err := is.LoadImage(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, 8, data.Width)
	assert.Equal(t, 4, data.Height)
	assert.Equal(t, "png", data.Format)
}

func TestLoadImageFromObjectURL(t *testing.T) {
	store := NewObjectURLStore()
	is := NewImageService(store)
	uri := store.Create(encodeTestPNG(t, 3, 5), "image/png")
	require.True(t, IsObjectURL(uri))

	data, err := is.LoadImage(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, 3, data.Width)

	store.Revoke(uri)
	_, err = is.LoadImage(context.Background(), uri)
	assert.ErrorIs(t, err, ErrUnknownObjectURL)
}

func TestLoadImageFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.png")
	require.NoError(t, os.WriteFile(path, encodeTestPNG(t, 6, 6), 0o644))
	is := NewImageService(nil)

	data, err := is.LoadImage(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 6, data.Height)

	data, err = is.LoadImage(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, 6, data.Width)
}

func TestLoadImageRemoteIsAnonymous(t *testing.T) {
	payload := encodeTestPNG(t, 2, 2)
	var sawAuth, sawCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization") != ""
		sawCookie = r.Header.Get("Cookie") != ""
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	is := NewImageService(nil, WithHTTPClient(srv.Client()))
	uri := "http://user:secret@" + srv.Listener.Addr().String() + "/cat.png"

	data, err := is.LoadImage(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, 2, data.Width)
	assert.False(t, sawAuth, "userinfo must not become basic auth")
	assert.False(t, sawCookie)
}

func TestLoadImageRemoteStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	is := NewImageService(nil, WithHTTPClient(srv.Client()))
	_, err := is.LoadImage(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)
}

func TestLoadImageRejectsGarbage(t *testing.T) {
	is := NewImageService(nil)

	_, err := is.LoadImage(context.Background(), "data:image/png;base64,bm90IGFuIGltYWdl")
	assert.Error(t, err)

	_, err = is.LoadImage(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = is.LoadImage(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestParseDataURI(t *testing.T) {
	parsed, err := ParseDataURI("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", parsed.MediaType)
	assert.Equal(t, "hello world", string(parsed.Data))

	parsed, err = ParseDataURI("data:;base64,aGk")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", parsed.MediaType)
	assert.Equal(t, "hi", string(parsed.Data))

	_, err = ParseDataURI("data:image/png;base64")
	assert.ErrorIs(t, err, ErrMalformedDataURI)

	_, err = ParseDataURI("blob:xyz")
	assert.ErrorIs(t, err, ErrMalformedDataURI)
}

func TestEncodeDataURIRoundTrip(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	parsed, err := ParseDataURI(EncodeDataURI("image/png", payload))
	require.NoError(t, err)
	assert.Equal(t, "image/png", parsed.MediaType)
	assert.Equal(t, payload, parsed.Data)
}

// withPNGSize rewrites the IHDR dimensions of an encoded PNG and fixes up the
// chunk checksum, leaving the pixel data untouched.
func withPNGSize(data []byte, w, h uint32) []byte {
	out := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecodeRejectsOversizedHeaders(t *testing.T) {
	is := NewImageService(nil)
	small := encodeTestPNG(t, 4, 4)

	tests := []struct {
		name string
		w, h uint32
	}{
		{"too wide", 100000, 1},
		{"too tall", 1, 40000},
		{"too many pixels", 9000, 9000},
		{"bomb", 100000, 100000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := is.Decode(withPNGSize(small, tt.w, tt.h), "bomb.png")
			assert.ErrorIs(t, err, ErrImageTooLarge)
		})
	}

	img, err := is.Decode(small, "small.png")
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width)
}

func TestFetchTimeoutIndependentOfOptionOrder(t *testing.T) {
	client := &http.Client{Timeout: time.Minute}

	before := NewImageService(nil, WithFetchTimeout(5*time.Second), WithHTTPClient(client))
	after := NewImageService(nil, WithHTTPClient(client), WithFetchTimeout(5*time.Second))

	assert.Equal(t, 5*time.Second, before.httpClient.Timeout)
	assert.Equal(t, 5*time.Second, after.httpClient.Timeout)
	assert.Equal(t, time.Minute, client.Timeout, "caller's client must not be modified")
}

func TestNilHTTPClientIgnored(t *testing.T) {
	var is *ImageService
	require.NotPanics(t, func() {
		is = NewImageService(nil, WithHTTPClient(nil), WithFetchTimeout(2*time.Second))
	})
	require.NotNil(t, is.httpClient)
	assert.Equal(t, 2*time.Second, is.httpClient.Timeout)
}
