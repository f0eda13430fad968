package email

import (
	"bytes"
	"html/template"
)

// TemplateData is the shared payload for notification emails.
type TemplateData struct {
	AppName  string
	Username string
	Heading  string
	Body     string
	LinkURL  string
	LinkText string
}

type VerificationData struct {
	AppName         string
	Username        string
	VerificationURL string
}

type PasswordResetData struct {
	AppName  string
	Username string
	ResetURL string
}

// RenderNotification renders the generic notification email body.
func RenderNotification(data TemplateData) (string, error) {
	return renderTemplate(notificationEmailTemplate, data)
}

// RenderVerification renders the sign-up verification email body.
func RenderVerification(data VerificationData) (string, error) {
	return renderTemplate(verificationEmailTemplate, data)
}

// RenderPasswordReset renders the password reset email body.
func RenderPasswordReset(data PasswordResetData) (string, error) {
	return renderTemplate(passwordResetEmailTemplate, data)
}

func renderTemplate(tmpl string, data interface{}) (string, error) {
	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const emailStyles = `
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #6366f1; padding-bottom: 10px; margin-bottom: 20px; }
        .button { display: inline-block; padding: 12px 24px; background: #6366f1; color: white; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
        .link { word-break: break-all; color: #6366f1; }
`

const notificationEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Heading}}</title>
    <style>` + emailStyles + `</style>
</head>
<body>
    <div class="header">
        <h1>{{.AppName}}</h1>
    </div>

    <h2>{{.Heading}}</h2>

    <p>Hi {{.Username}},</p>

    <p>{{.Body}}</p>

    {{if .LinkURL}}
    <p>
        <a href="{{.LinkURL}}" class="button">{{.LinkText}}</a>
    </p>
    {{end}}

    <div class="footer">
        <p>You are receiving this because of your notification preferences in {{.AppName}}. You can change them in Settings.</p>
    </div>
</body>
</html>`

const verificationEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Verify your {{.AppName}} account</title>
    <style>` + emailStyles + `</style>
</head>
<body>
    <div class="header">
        <h1>{{.AppName}}</h1>
    </div>

    <h2>Welcome, {{.Username}}!</h2>

    <p>Thank you for signing up. Please verify your email address to activate your account.</p>

    <p>
        <a href="{{.VerificationURL}}" class="button">Verify Email Address</a>
    </p>

    <p>Or copy and paste this link into your browser:</p>
    <p class="link">{{.VerificationURL}}</p>

    <p>This verification link will expire in 24 hours.</p>

    <div class="footer">
        <p>If you didn't create an account with {{.AppName}}, you can safely ignore this email.</p>
    </div>
</body>
</html>`

const passwordResetEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Reset your {{.AppName}} password</title>
    <style>` + emailStyles + `</style>
</head>
<body>
    <div class="header">
        <h1>{{.AppName}}</h1>
    </div>

    <h2>Password Reset Request</h2>

    <p>Hi {{.Username}},</p>

    <p>We received a request to reset your password. Click the button below to create a new password:</p>

    <p>
        <a href="{{.ResetURL}}" class="button">Reset Password</a>
    </p>

    <p>Or copy and paste this link into your browser:</p>
    <p class="link">{{.ResetURL}}</p>

    <p><strong>Important:</strong> This reset link will expire in 1 hour.</p>

    <div class="footer">
        <p>If you didn't request a password reset, you can safely ignore this email. Your password will remain unchanged.</p>
    </div>
</body>
</html>`
