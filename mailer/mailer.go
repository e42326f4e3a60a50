// Package mailer is the outgoing-email boundary. Actual delivery is an
// external concern; the console implementation logs what would be sent
// and reports the attempted recipient count, which is all the notice
// fan-out needs.
package mailer

import "github.com/sirupsen/logrus"

type Message struct {
	To      []string
	Subject string
	Body    string
}

type Mailer interface {
	// Send delivers one message and returns how many recipients were
	// attempted.
	Send(msg Message) (int, error)
}

type Console struct {
	Logger *logrus.Logger
}

func NewConsole(logger *logrus.Logger) *Console {
	return &Console{Logger: logger}
}

func (m *Console) Send(msg Message) (int, error) {
	if len(msg.To) == 0 {
		return 0, nil
	}
	m.Logger.WithFields(logrus.Fields{
		"recipients": len(msg.To),
		"subject":    msg.Subject,
	}).Info("mail: console delivery (configure a real provider to send)")
	return len(msg.To), nil
}
