package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"
)

// EmailSender delivers a plain-text email to one recipient.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// SESClient wraps AWS SESv2 sending.
type SESClient struct {
	client *sesv2.Client
	sender string
}

// NewSESClient initializes an SES client using static credentials and region.
func NewSESClient(accessKeyID, secretAccessKey, region, sender string) (*SESClient, error) {
	if accessKeyID == "" || secretAccessKey == "" || region == "" {
		return nil, fmt.Errorf("ses credentials and region are required")
	}
	if sender == "" {
		return nil, fmt.Errorf("ses sender is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SESClient{
		client: sesv2.NewFromConfig(awsCfg),
		sender: sender,
	}, nil
}

func (c *SESClient) Send(ctx context.Context, recipient, subject, body string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("ses client is not initialized")
	}
	if recipient == "" {
		return fmt.Errorf("recipient is required")
	}

	input := &sesv2.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
		FromEmailAddress: aws.String(c.sender),
	}

	if _, err := c.client.SendEmail(ctx, input); err != nil {
		log.Error().
			Err(err).
			Str("recipient", recipient).
			Str("subject", subject).
			Time("timestamp", time.Now().UTC()).
			Msg("Failed to send SES email")
		return fmt.Errorf("send ses email: %w", err)
	}
	return nil
}

// EmailNotifier renders events addressed to an email contact. Events
// without an email address are skipped.
type EmailNotifier struct {
	sender EmailSender
}

func NewEmailNotifier(sender EmailSender) *EmailNotifier {
	return &EmailNotifier{sender: sender}
}

func (n *EmailNotifier) Notify(ctx context.Context, e Event) error {
	recipient := strings.TrimSpace(e.Email)
	if recipient == "" {
		return nil
	}
	subject, body := render(e)
	return n.sender.Send(ctx, recipient, subject, body)
}

func render(e Event) (string, string) {
	var subject string
	switch e.Type {
	case EventSeriesCreated:
		subject = "Your seasonal booking request was received"
	case EventSeriesConfirmed:
		subject = "Your seasonal booking was confirmed"
	case EventSeriesRejected:
		subject = "Your seasonal booking was rejected"
	case EventSeriesActivated:
		subject = "Your seasonal booking is active"
	case EventSeriesCompleted:
		subject = "Your seasonal booking has ended"
	case EventWaitlistOffered:
		subject = "A court slot you waited for is available"
	default:
		subject = "Booking update"
	}

	var b strings.Builder
	if e.CourtName != "" {
		fmt.Fprintf(&b, "Court: %s\n", e.CourtName)
	}
	if !e.StartTime.IsZero() {
		fmt.Fprintf(&b, "When: %s - %s\n", e.StartTime.Format("Mon 2 Jan 2006 15:04"), e.EndTime.Format("15:04"))
	}
	if e.Message != "" {
		b.WriteString("\n" + e.Message + "\n")
	}
	return subject, b.String()
}
