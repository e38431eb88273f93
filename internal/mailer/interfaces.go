package mailer

type Service interface {
	SendWelcomeEmail(toEmail, toName, role string) error
}
