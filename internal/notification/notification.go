// Package notification delivers password reset messages by log, SMTP, or an asynq queue.
package notification

import (
	"fmt"
	"net/url"
	"strings"
)

const passwordResetSubject = "Reset your password"

// ResetLink appends the token to the reset page URL
func ResetLink(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid reset url: %w", err)
	}

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func passwordResetBody(link string) string {
	var b strings.Builder
	b.WriteString("<p>We received a request to reset your password.</p>\r\n")
	fmt.Fprintf(&b, "<p><a href=\"%s\">Choose a new password</a></p>\r\n", link)
	b.WriteString("<p>The link expires in one hour. If you did not ask for this, ignore this email.</p>\r\n")
	return b.String()
}
