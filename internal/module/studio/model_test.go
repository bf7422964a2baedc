package studio

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDataURI(mime string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString([]byte("fake-image-bytes"))
}

func TestParseImageDataURI(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "valid png", input: validDataURI("image/png")},
		{name: "valid jpeg", input: validDataURI("image/jpeg")},
		{name: "valid webp", input: validDataURI("image/webp")},
		{name: "missing scheme", input: "image/png;base64,aGk=", wantErr: "missing data: scheme"},
		{name: "not base64 marker", input: "data:image/png,rawbytes", wantErr: "not base64 encoded"},
		{name: "unsupported mime", input: validDataURI("image/gif"), wantErr: "unsupported type"},
		{name: "malformed payload", input: "data:image/png;base64,@@not-base64@@", wantErr: "malformed base64"},
		{name: "empty payload", input: "data:image/png;base64,", wantErr: "empty image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ParseImageDataURI(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidImage)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, img.MIMEType)
			assert.NotEmpty(t, img.Data)
		})
	}
}

func TestParseImageDataURI_TooLarge(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(make([]byte, MaxImageBytes+1))
	_, err := ParseImageDataURI("data:image/png;base64," + payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestInlineImageDataURIRoundTrip(t *testing.T) {
	uri := validDataURI("image/jpeg")
	img, err := ParseImageDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, uri, img.DataURI())
}

func TestTryOnRequestNormalize(t *testing.T) {
	t.Run("legacy singular field is folded in", func(t *testing.T) {
		req := &TryOnRequest{OutfitImageDataURI: "data:a"}
		req.Normalize()
		assert.Equal(t, []string{"data:a"}, req.OutfitImageDataURIs)
	})

	t.Run("singular field is prepended to plural", func(t *testing.T) {
		req := &TryOnRequest{
			OutfitImageDataURI:  "data:a",
			OutfitImageDataURIs: []string{"data:b", "data:c"},
		}
		req.Normalize()
		assert.Equal(t, []string{"data:a", "data:b", "data:c"}, req.OutfitImageDataURIs)
		assert.Empty(t, req.OutfitImageDataURI)
	})
}

func TestStripCodeFence(t *testing.T) {
	want := `{"season": "Cool Winter"}`

	assert.Equal(t, want, stripCodeFence(want))
	assert.Equal(t, want, stripCodeFence("```json\n"+want+"\n```"))
	assert.Equal(t, want, stripCodeFence("```\n"+want+"\n```"))
	assert.Equal(t, want, stripCodeFence("  \n"+want+"\n  "))

	assert.False(t, strings.Contains(stripCodeFence("```json\n{}\n```"), "`"))
}
