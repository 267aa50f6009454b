package file

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // Import for GIF decoding support
	_ "image/jpeg"
	"image/png"
	"io"
	"path"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

type FileService interface {
	// Leave attachment uploads
	UploadLeaveAttachment(ctx context.Context, employeeID string, upload *leave.Upload) (string, error)

	// UploadSignature stores a signature, downscaling raster images wider
	// than the configured maximum
	UploadSignature(ctx context.Context, employeeID string, upload *leave.Upload) (string, error)

	// Generic operations
	DeleteFile(ctx context.Context, path string) error
	GetFileURL(path string) string
}

type fileServiceImpl struct {
	storage           storage.FileStorage
	signatureMaxWidth int
	now               func() time.Time
}

func NewFileService(storage storage.FileStorage, signatureMaxWidth int) FileService {
	return &fileServiceImpl{
		storage:           storage,
		signatureMaxWidth: signatureMaxWidth,
		now:               time.Now,
	}
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func contentType(ext string) string {
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// objectPath builds leave/{employeeID}/{kind}-{uuid}-{unix}{ext}.
func (s *fileServiceImpl) objectPath(employeeID, kind, ext string) string {
	name := fmt.Sprintf("%s-%s-%d%s", kind, uuid.New().String(), s.now().Unix(), ext)
	return path.Join("leave", employeeID, name)
}

// UploadLeaveAttachment uploads leave application attachment
func (s *fileServiceImpl) UploadLeaveAttachment(ctx context.Context, employeeID string, upload *leave.Upload) (string, error) {
	ext := upload.Ext()
	uploadedPath, err := s.storage.Upload(ctx, upload.Content, s.objectPath(employeeID, "attachment", ext), contentType(ext))
	if err != nil {
		return "", fmt.Errorf("failed to upload leave attachment: %w", err)
	}
	return uploadedPath, nil
}

func (s *fileServiceImpl) UploadSignature(ctx context.Context, employeeID string, upload *leave.Upload) (string, error) {
	ext := upload.Ext()
	var body io.Reader = upload.Content

	if ext != ".svg" {
		buffer, err := io.ReadAll(upload.Content)
		if err != nil {
			return "", fmt.Errorf("failed to read signature: %w", err)
		}
		normalized, changed, err := normalizeSignature(buffer, s.signatureMaxWidth)
		if err != nil {
			return "", validator.Single("signature", "Signature file could not be read as an image.")
		}
		if changed {
			ext = ".png"
		}
		body = bytes.NewReader(normalized)
	}

	uploadedPath, err := s.storage.Upload(ctx, body, s.objectPath(employeeID, "signature", ext), contentType(ext))
	if err != nil {
		return "", fmt.Errorf("failed to upload signature: %w", err)
	}
	return uploadedPath, nil
}

// DeleteFile deletes a file
func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

func (s *fileServiceImpl) GetFileURL(path string) string {
	return s.storage.URL(path)
}

// ==================== HELPER FUNCTIONS ====================

// normalizeSignature re-encodes a raster wider than maxWidth as a PNG of
// exactly maxWidth pixels, keeping the aspect ratio. Narrower images are
// returned untouched with changed=false.
func normalizeSignature(buffer []byte, maxWidth int) (out []byte, changed bool, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(buffer))
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode image config: %w", err)
	}
	if maxWidth <= 0 || cfg.Width <= maxWidth {
		return buffer, false, nil
	}

	img, _, err := image.Decode(bytes.NewReader(buffer))
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode image: %w", err)
	}

	height := cfg.Height * maxWidth / cfg.Width
	if height < 1 {
		height = 1
	}
	resized := resizeImage(img, maxWidth, height)

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, resized); err != nil {
		return nil, false, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), true, nil
}

// resizeImage resizes an image to the specified dimensions using high-quality interpolation
func resizeImage(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
