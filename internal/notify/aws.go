package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jonathan/hr-admin/internal/config"
)

// SESService is the subset of the SES client used here.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSService is the subset of the SNS client used here.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Contact is where a user can be reached.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// Directory resolves user IDs to contacts. A nil contact means the user is unknown.
type Directory interface {
	Contact(ctx context.Context, userID uuid.UUID) (*Contact, error)
}

// AWSConfig configures email and SMS delivery.
type AWSConfig struct {
	Region       string
	FromEmail    string
	EmailEnabled bool
	SMSEnabled   bool
	// SendRate caps SES calls per second; SES rejects bursts above the account quota.
	SendRate float64
}

// AWSNotifier emails the task assignee through SES and, for urgent tasks,
// texts them through SNS.
type AWSNotifier struct {
	cfg       AWSConfig
	directory Directory
	ses       SESService
	sns       SNSService
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewAWSNotifier loads the default AWS credential chain for cfg.Region.
func NewAWSNotifier(ctx context.Context, cfg AWSConfig, directory Directory, l *zap.Logger) (*AWSNotifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.Wrap(err, "load AWS config")
	}
	return NewAWSNotifierWithClients(cfg, directory, ses.NewFromConfig(awsCfg), sns.NewFromConfig(awsCfg), l), nil
}

// NewAWSNotifierWithClients builds a notifier around existing clients.
func NewAWSNotifierWithClients(cfg AWSConfig, directory Directory, sesClient SESService, snsClient SNSService, l *zap.Logger) *AWSNotifier {
	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}
	return &AWSNotifier{
		cfg:       cfg,
		directory: directory,
		ses:       sesClient,
		sns:       snsClient,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    l.Named("notify.aws"),
	}
}

// Notify implements Notifier.
func (n *AWSNotifier) Notify(ctx context.Context, ev Event) error {
	contact, err := n.directory.Contact(ctx, ev.AssigneeID)
	if err != nil {
		return errors.Wrapf(err, "resolve assignee %s", ev.AssigneeID)
	}
	if contact == nil {
		n.logger.Warn("assignee not found, skipping notification",
			zap.Stringer("assignee_id", ev.AssigneeID),
			zap.Stringer("task_id", ev.TaskID))
		return nil
	}

	subject, body := renderMessage(ev, contact.Name)

	if n.cfg.EmailEnabled && contact.Email != "" {
		if err := n.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "wait for SES send slot")
		}
		if err := n.sendEmail(ctx, contact.Email, subject, body); err != nil {
			return errors.Wrapf(err, "send email to %s", contact.Email)
		}
	}

	if n.cfg.SMSEnabled && contact.Phone != "" && ev.Priority == "urgent" {
		if err := n.sendSMS(ctx, contact.Phone, subject); err != nil {
			return errors.Wrapf(err, "send sms to %s", contact.Phone)
		}
	}

	return nil
}

func (n *AWSNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.FromEmail),
	})
	return err
}

func (n *AWSNotifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

func renderMessage(ev Event, name string) (subject, body string) {
	due := ev.DueDate.Format("2006-01-02")
	switch ev.Kind {
	case KindTaskCreated:
		subject = fmt.Sprintf("New onboarding task: %s", ev.TaskName)
	case KindReminder:
		subject = fmt.Sprintf("Reminder: %s is due %s", ev.TaskName, due)
	default:
		subject = fmt.Sprintf("Onboarding task %s is now %s", ev.TaskName, ev.NewStatus)
	}

	var sb strings.Builder
	if name != "" {
		fmt.Fprintf(&sb, "Hi %s,\n\n", name)
	}
	fmt.Fprintf(&sb, "Task: %s\n", ev.TaskName)
	fmt.Fprintf(&sb, "Employee: %s\n", ev.EmployeeID)
	fmt.Fprintf(&sb, "Due: %s\n", due)
	if ev.OldStatus != "" {
		fmt.Fprintf(&sb, "Status: %s -> %s\n", ev.OldStatus, ev.NewStatus)
	} else {
		fmt.Fprintf(&sb, "Status: %s\n", ev.NewStatus)
	}
	if ev.Priority != "" {
		fmt.Fprintf(&sb, "Priority: %s\n", ev.Priority)
	}
	return subject, sb.String()
}

// FromConfig builds the notifier selected by cfg. Events are always logged;
// the aws channel additionally sends email and SMS.
func FromConfig(ctx context.Context, cfg config.NotifyConfig, directory Directory, l *zap.Logger) (Notifier, error) {
	logNotifier := NewLogNotifier(l)
	if cfg.Channel != "aws" {
		return logNotifier, nil
	}
	awsNotifier, err := NewAWSNotifier(ctx, AWSConfig{
		Region:       cfg.AWSRegion,
		FromEmail:    cfg.FromEmail,
		EmailEnabled: cfg.EmailEnabled,
		SMSEnabled:   cfg.SMSEnabled,
		SendRate:     cfg.SendRate,
	}, directory, l)
	if err != nil {
		return nil, err
	}
	return Multi{logNotifier, awsNotifier}, nil
}
