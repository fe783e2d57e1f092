// Package mailer implements the notification collaborator that delivers
// password reset instructions. Delivery is fire-and-forget: the auth flow's
// outcome never depends on it, failures only reach the logs.
package mailer

import (
	"encoding/json"
	"fmt"

	"servicestation/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MailQueue receives reset mail jobs on the broker.
const MailQueue = "mail_queue"

// Publisher pushes a message onto a broker queue.
type Publisher interface {
	Publish(queue string, body []byte) error
}

// resetJob is the wire form of a reset mail job.
type resetJob struct {
	MessageID string `json:"message_id"`
	Recipient string `json:"recipient"`
	FirstName string `json:"first_name"`
	Token     string `json:"token"`
	ResetPath string `json:"reset_path"`
}

// AMQP publishes reset mail jobs to RabbitMQ for a mail worker to send.
type AMQP struct {
	publisher Publisher
	log       *logrus.Entry
}

// NewAMQP creates an AMQP mailer.
func NewAMQP(publisher Publisher, log *logrus.Entry) *AMQP {
	return &AMQP{publisher: publisher, log: log}
}

// DeliverResetEmail enqueues a reset mail job for the user.
func (m *AMQP) DeliverResetEmail(user *models.User, token string) {
	job := resetJob{
		MessageID: uuid.New().String(),
		Recipient: user.Email,
		FirstName: user.FirstName,
		Token:     token,
		ResetPath: fmt.Sprintf("/reset_password/%s", token),
	}
	body, err := json.Marshal(job)
	if err != nil {
		m.log.WithError(err).Error("failed to marshal reset mail job")
		return
	}
	if err := m.publisher.Publish(MailQueue, body); err != nil {
		m.log.WithError(err).WithField("email", user.Email).
			Warn("failed to enqueue password reset email")
		return
	}
	m.log.WithField("email", user.Email).Info("password reset email enqueued")
}

// Log writes the reset link to the log instead of sending mail. Used when no
// broker is configured and in tests.
type Log struct {
	log *logrus.Entry
}

// NewLog creates a Log mailer.
func NewLog(log *logrus.Entry) *Log {
	return &Log{log: log}
}

// DeliverResetEmail logs the reset path for the user.
func (m *Log) DeliverResetEmail(user *models.User, token string) {
	m.log.WithFields(logrus.Fields{
		"email":      user.Email,
		"reset_path": fmt.Sprintf("/reset_password/%s", token),
	}).Info("password reset email (log delivery)")
}
