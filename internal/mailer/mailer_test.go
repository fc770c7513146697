package mailer

import (
	"testing"

	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestBuildMessage(t *testing.T) {
	templates, err := parseTemplates()
	require.NoError(t, err)

	msg, err := buildMessage("noreply@example.com", templates, domain.MailMessage{
		Type: domain.MailResetPassword,
		To:   "alice@example.com",
		Data: domain.ResetPasswordMailData{Name: "Alice", OTP: "123456", Expiration: 15},
	})
	require.NoError(t, err)

	to := msg.GetToString()
	require.Len(t, to, 1)
	assert.Contains(t, to[0], "alice@example.com")
	assert.Equal(t, []string{"Shift Manager - Reset password"}, msg.GetGenHeader(mail.HeaderSubject))
}

func TestBuildMessageUnknownType(t *testing.T) {
	templates, err := parseTemplates()
	require.NoError(t, err)

	_, err = buildMessage("noreply@example.com", templates, domain.MailMessage{Type: "weekly_digest", To: "a@example.com"})
	assert.Error(t, err)
}

func TestBuildMessageInvalidRecipient(t *testing.T) {
	templates, err := parseTemplates()
	require.NoError(t, err)

	_, err = buildMessage("noreply@example.com", templates, domain.MailMessage{
		Type: domain.MailNewAccount,
		To:   "not an address",
		Data: domain.NewAccountMailData{Name: "Bob"},
	})
	assert.Error(t, err)
}

func TestEveryMailTypeHasTemplate(t *testing.T) {
	templates, err := parseTemplates()
	require.NoError(t, err)

	for _, typ := range []domain.MailType{domain.MailNewAccount, domain.MailResetPassword, domain.MailChangeEmail} {
		assert.Contains(t, templates, typ)
	}
}
