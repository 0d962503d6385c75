package sns

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/analytics-dashboard-api/internal/config"
	"github.com/analytics-dashboard-api/internal/infrastructure/mail"
)

const publishTimeout = 10 * time.Second

// Mailer is the secondary mail channel: it publishes the plain-text body
// to an SNS topic whose subscribers are the operator mailboxes. Used only
// when the SMTP channel fails, so delivery is best-effort but independent
// of the primary SMTP relay.
type Mailer struct {
	client   *sns.Client
	topicARN string
}

func NewMailer(cfg *config.Config) (*Mailer, error) {
	if cfg.SNSTopicARN == "" {
		return nil, fmt.Errorf("SNS_TOPIC_ARN not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &Mailer{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSTopicARN}, nil
}

func (m *Mailer) Send(ctx context.Context, msg *mail.Message) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	subject := msg.Subject
	body := fmt.Sprintf("To: %s\n\n%s", msg.To, msg.Text)
	_, err := m.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &m.topicARN,
		Subject:  &subject,
		Message:  &body,
	})
	return err
}
