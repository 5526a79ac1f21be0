package email

import (
	"fmt"
	"html/template"
	"strings"
)

// Template data for the two transactional emails the auth flows send.
type (
	VerificationEmailData struct {
		Name      string
		VerifyURL string
	}

	PasswordResetEmailData struct {
		Name     string
		ResetURL string
		TTLHours int
	}
)

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 560px; margin: 0 auto;">
  <h2>Confirm your email address</h2>
  <p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
  <p>Thanks for signing up. Please confirm your email address by clicking the link below.</p>
  <p><a href="{{.VerifyURL}}">Verify email address</a></p>
  <p>If you didn't create an account, you can safely ignore this email.</p>
</body>
</html>
`))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 560px; margin: 0 auto;">
  <h2>Reset your password</h2>
  <p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
  <p>We received a request to reset your password. The link below is valid for {{.TTLHours}} hour{{if ne .TTLHours 1}}s{{end}}.</p>
  <p><a href="{{.ResetURL}}">Reset password</a></p>
  <p>If you didn't request a password reset, no action is needed.</p>
</body>
</html>
`))

// RenderVerificationEmail renders the email-verification message body.
func RenderVerificationEmail(data VerificationEmailData) (string, error) {
	var sb strings.Builder
	if err := verificationTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("email: failed to render verification template: %w", err)
	}
	return sb.String(), nil
}

// RenderPasswordResetEmail renders the password-reset message body.
func RenderPasswordResetEmail(data PasswordResetEmailData) (string, error) {
	var sb strings.Builder
	if err := passwordResetTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("email: failed to render password reset template: %w", err)
	}
	return sb.String(), nil
}
