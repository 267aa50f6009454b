package file

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newService(t *testing.T) (FileService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	return NewFileService(store, 600), store
}

func readStored(t *testing.T, store *storage.LocalStorage, key string) []byte {
	t.Helper()
	rc, err := store.Download(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return b
}

func TestNormalizeSignature(t *testing.T) {
	cases := []struct {
		name        string
		width       int
		height      int
		wantChanged bool
		wantWidth   int
		wantHeight  int
	}{
		{"narrow kept", 300, 100, false, 300, 100},
		{"exact width kept", 600, 200, false, 600, 200},
		{"wide downscaled", 1200, 400, true, 600, 200},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, changed, err := normalizeSignature(pngBytes(t, c.width, c.height), 600)
			require.NoError(t, err)
			assert.Equal(t, c.wantChanged, changed)

			cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, c.wantWidth, cfg.Width)
			assert.Equal(t, c.wantHeight, cfg.Height)
		})
	}

	_, _, err := normalizeSignature([]byte("not an image"), 600)
	assert.Error(t, err)
}

func TestFileService_UploadSignature(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	key, err := svc.UploadSignature(ctx, "emp-1", &leave.Upload{
		Filename: "sig.png",
		Content:  bytes.NewReader(pngBytes(t, 1000, 250)),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "leave/emp-1/signature-"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "/uploads/"+key, svc.GetFileURL(key))

	cfg, _, err := image.DecodeConfig(bytes.NewReader(readStored(t, store, key)))
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Width)

	svgKey, err := svc.UploadSignature(ctx, "emp-1", &leave.Upload{
		Filename: "sig.svg",
		Content:  strings.NewReader("<svg/>"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(svgKey, ".svg"))
	assert.Equal(t, "<svg/>", string(readStored(t, store, svgKey)))

	_, err = svc.UploadSignature(ctx, "emp-1", &leave.Upload{
		Filename: "sig.jpg",
		Content:  strings.NewReader("garbage"),
	})
	var errs validator.ValidationErrors
	assert.ErrorAs(t, err, &errs)
}

func TestFileService_UploadLeaveAttachment(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	key, err := svc.UploadLeaveAttachment(ctx, "emp-1", &leave.Upload{
		Filename: "Doctor Note.PDF",
		Content:  strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "leave/emp-1/attachment-"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.Equal(t, "%PDF-1.4", string(readStored(t, store, key)))

	require.NoError(t, svc.DeleteFile(ctx, key))
	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
