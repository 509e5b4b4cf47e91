package mailqueue

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

type mailTemplate struct {
	file    string
	subject string
}

var mailTemplates = map[string]mailTemplate{
	domain.MailTypeWelcome: {
		file:    "templates/welcome_email.html",
		subject: "Station Allocation - Welcome",
	},
	domain.MailTypeResetPassword: {
		file:    "templates/reset_password_otp_email.html",
		subject: "Station Allocation - Reset Password",
	},
}

// Template 返回邮件类型对应的模板和标题。
// 消息从队列中反序列化后 Data 是 map，模板中按 json 字段名取值。
func Template(mailType string) (*template.Template, string, error) {
	mt, ok := mailTemplates[mailType]
	if !ok {
		return nil, "", fmt.Errorf("不支持的邮件类型: %s", mailType)
	}

	tmpl, err := template.ParseFS(templateFS, mt.file)
	if err != nil {
		return nil, "", err
	}

	return tmpl, mt.subject, nil
}
