package auth

import (
	"fmt"
	"html"

	"github.com/analytics-dashboard-api/internal/infrastructure/mail"
)

const codeEmailSubject = "Your sign-in code"

const codeEmailHTML = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f5f7;font-family:Arial,Helvetica,sans-serif;">
  <table role="presentation" width="100%%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:32px 16px;">
      <table role="presentation" width="440" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;padding:32px;">
        <tr><td style="font-size:18px;font-weight:bold;color:#1a1a2e;padding-bottom:16px;">Analytics Dashboard</td></tr>
        <tr><td style="font-size:14px;color:#333;padding-bottom:8px;">Hi %s,</td></tr>
        <tr><td style="font-size:14px;color:#333;padding-bottom:24px;">Use this code to sign in:</td></tr>
        <tr><td align="center" style="padding-bottom:24px;">
          <span style="display:inline-block;font-size:32px;letter-spacing:8px;font-weight:bold;color:#1a1a2e;background:#f4f5f7;border-radius:6px;padding:12px 24px;">%s</span>
        </td></tr>
        <tr><td style="font-size:12px;color:#888;">The code expires in 10 minutes. If you didn't request it, you can ignore this email.</td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

const codeEmailText = `Hi %s,

Your sign-in code for the Analytics Dashboard is: %s

The code expires in 10 minutes. If you didn't request it, you can ignore this email.`

func buildCodeEmail(email, name, code string) *mail.Message {
	if name == "" {
		name = "there"
	}
	return &mail.Message{
		To:      email,
		ToName:  name,
		Subject: codeEmailSubject,
		HTML:    fmt.Sprintf(codeEmailHTML, html.EscapeString(name), code),
		Text:    fmt.Sprintf(codeEmailText, name, code),
	}
}
