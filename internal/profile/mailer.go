package profile

import (
	"context"

	log "github.com/sirupsen/logrus"
)

type Mailer interface {
	SendConfirmationCode(ctx context.Context, email, code string) error
}

// LogMailer only logs the code. Used in development and tests.
type LogMailer struct{}

func (LogMailer) SendConfirmationCode(_ context.Context, email, code string) error {
	log.WithField("email", email).Infof("email change confirmation code: %s", code)
	return nil
}
