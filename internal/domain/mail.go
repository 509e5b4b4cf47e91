package domain

const (
	MailTypeWelcome       = "welcome"
	MailTypeResetPassword = "reset_password"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type WelcomeMailData struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	SubRole string `json:"subRole"`
}

type ResetPasswordMailData struct {
	Name       string `json:"name"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}
