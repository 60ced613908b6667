package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
)

// AWSSESEmailService notifies action takers over AWS SES when a complaint is
// routed to them. The notification never includes the description: the email
// channel is outside the access gate, so it only carries the ID and a link
// back into the dashboard.
type AWSSESEmailService struct {
	sesClient    *ses.Client
	fromAddress  string
	dashboardURL string
	logger       *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, dashboardURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:    ses.NewFromConfig(cfg),
		fromAddress:  fromAddress,
		dashboardURL: dashboardURL,
		logger:       logger,
	}, nil
}

// SendAssignmentNotification tells the assignee a complaint now sits with them.
func (s *AWSSESEmailService) SendAssignmentNotification(ctx context.Context, toEmail, toName string, complaint *models.Complaint) error {
	caseLink := fmt.Sprintf("%s/complaints/%s", s.dashboardURL, complaint.ID)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .button { display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .meta { background-color: #f8f9fa; padding: 10px; border-left: 4px solid #0066cc; margin: 10px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Complaint Assigned to You</h1>
        </div>
        <div class="content">
            <p>Hello %s,</p>
            <p>A complaint has been assigned to you and is now Under Review.</p>
            <div class="meta">
                <strong>Case:</strong> %s<br>
                <strong>Category:</strong> %s<br>
                <strong>Severity:</strong> %s
            </div>
            <p><a href="%s" class="button">Open Case</a></p>
            <p>Details are available in the dashboard after sign-in. They are deliberately not included in this email.</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, toName, complaint.ID, complaint.Category, complaint.Severity, caseLink)

	textBody := fmt.Sprintf(`Complaint Assigned to You

Hello %s,

A complaint has been assigned to you and is now Under Review.

Case: %s
Category: %s
Severity: %s

Open the case: %s

Details are available in the dashboard after sign-in. They are deliberately not included in this email.

This is an automated message. Please do not reply to this email.
`, toName, complaint.ID, complaint.Category, complaint.Severity, caseLink)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("Complaint %s assigned to you", complaint.ID)),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send assignment notification via SES",
			slog.String("complaint_id", complaint.ID),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("assignment notification sent",
		slog.String("complaint_id", complaint.ID),
		slog.String("message_id", *result.MessageId))

	return nil
}
