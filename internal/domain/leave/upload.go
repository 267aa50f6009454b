package leave

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// Upload is a file received with a leave application, not yet stored.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Content     io.Reader
}

func (u *Upload) Ext() string {
	return strings.ToLower(filepath.Ext(u.Filename))
}

// UploadPolicy bounds the size and type of one kind of upload.
type UploadPolicy struct {
	Field       string
	Label       string
	MaxBytes    int64
	AllowedExts []string
}

func AttachmentPolicy(maxBytes int64) UploadPolicy {
	return UploadPolicy{
		Field:       "attachment",
		Label:       "File",
		MaxBytes:    maxBytes,
		AllowedExts: []string{".pdf", ".jpg", ".jpeg", ".png", ".doc", ".docx"},
	}
}

func SignaturePolicy(maxBytes int64) UploadPolicy {
	return UploadPolicy{
		Field:       "signature",
		Label:       "Signature file",
		MaxBytes:    maxBytes,
		AllowedExts: []string{".jpg", ".jpeg", ".png", ".gif", ".svg"},
	}
}

// Check validates u against the policy. A nil upload is accepted.
func (p UploadPolicy) Check(u *Upload) error {
	if u == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if u.Size > p.MaxBytes {
		errs.Add(p.Field, fmt.Sprintf("%s size should not exceed %s.", p.Label, formatBytes(p.MaxBytes)))
	}
	if !validator.IsInSlice(u.Ext(), p.AllowedExts) {
		errs.Add(p.Field, fmt.Sprintf("Unsupported file extension. Allowed: %s", strings.Join(p.AllowedExts, ", ")))
	}
	return errs.Err()
}

func formatBytes(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
