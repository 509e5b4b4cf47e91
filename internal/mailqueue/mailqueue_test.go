package mailqueue

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
)

// 模拟 mail worker 从队列中取出消息后的 Data
func decodeData(t *testing.T, msg domain.MailMessage) domain.MailMessage {
	t.Helper()

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded domain.MailMessage
	require.NoError(t, json.Unmarshal(body, &decoded))
	return decoded
}

func TestTemplate_Welcome(t *testing.T) {
	msg := decodeData(t, domain.MailMessage{
		Type: domain.MailTypeWelcome,
		To:   "asha@company.com",
		Data: domain.WelcomeMailData{Name: "Asha", Role: "Assembly", SubRole: "Under Body"},
	})

	tmpl, subject, err := Template(msg.Type)
	require.NoError(t, err)
	assert.Contains(t, subject, "Welcome")

	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, msg.Data))
	assert.Contains(t, buf.String(), "Hi Asha")
	assert.Contains(t, buf.String(), "Under Body")
}

func TestTemplate_ResetPassword(t *testing.T) {
	msg := decodeData(t, domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   "asha@company.com",
		Data: domain.ResetPasswordMailData{Name: "Asha", OTP: "123456", Expiration: 15},
	})

	tmpl, _, err := Template(msg.Type)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, msg.Data))
	assert.Contains(t, buf.String(), "123456")
	assert.Contains(t, buf.String(), "15 minutes")
}

func TestTemplate_Unknown(t *testing.T) {
	_, _, err := Template("change_email")
	assert.Error(t, err)
}
