package alert

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESSender is satisfied by the common aws SESClient.
type SESSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SESAlerter emails the alert to a fixed recipient list.
type SESAlerter struct {
	client SESSender
	from   string
	to     []string
}

func NewSESAlerter(client SESSender, from string, to []string) *SESAlerter {
	return &SESAlerter{client: client, from: from, to: to}
}

func (s *SESAlerter) Send(ctx context.Context, a Alert) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.from),
		Destination: &types.Destination{ToAddresses: s.to},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(a.Subject())},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(a.Body())},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}
	return nil
}
