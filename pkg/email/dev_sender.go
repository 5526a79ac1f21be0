package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevSender implements EmailSender for local development. It writes each
// email as an HTML file to a directory instead of sending it through a
// provider, so verification and reset links can be opened from disk.
type DevSender struct {
	dir string
}

// NewDevSender creates a development email sender that saves emails to disk.
// The directory is created on first send if it does not exist.
func NewDevSender(dir string) EmailSender {
	return &DevSender{dir: dir}
}

// SendEmail saves the email body to the configured directory.
func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", ErrFailedToSendEmail, err)
	}

	name := params.Tag
	if name == "" {
		name = params.Subject
	}
	filename := fmt.Sprintf("%s_%s.html", time.Now().Format("2006_01_02_150405"), sanitizeFilename(name))

	if err := os.WriteFile(filepath.Join(d.dir, filename), []byte(params.BodyHTML), 0o644); err != nil {
		return fmt.Errorf("%w: failed to write file: %v", ErrFailedToSendEmail, err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
