package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

type SESConfig struct {
	Region string
	// AccessKey and SecretKey are optional; the default AWS chain is used when empty.
	AccessKey string
	SecretKey string
	From      string
	// ConfigurationSet is the optional SES configuration set name.
	ConfigurationSet string
}

// sesAPI is the slice of the SES v2 client this driver calls.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES delivers through the Amazon SES v2 API.
type SES struct {
	api  sesAPI
	from string
	set  string
}

func NewSES(ctx context.Context, cfg SESConfig) (*SES, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SES{api: sesv2.NewFromConfig(awsCfg), from: cfg.From, set: cfg.ConfigurationSet}, nil
}

func utf8Content(s string) *types.Content {
	if s == "" {
		return nil
	}
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

func (s *SES) Send(ctx context.Context, msg Message) (string, error) {
	from, err := msg.sender(s.from)
	if err != nil {
		return "", err
	}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.Cc,
			BccAddresses: msg.Bcc,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8Content(msg.Subject),
				Body: &types.Body{
					Html: utf8Content(msg.HTMLBody),
					Text: utf8Content(msg.TextBody),
				},
			},
		},
	}
	if s.set != "" {
		in.ConfigurationSetName = aws.String(s.set)
	}

	out, err := s.api.SendEmail(ctx, in)
	if err != nil {
		return "", fmt.Errorf("ses send: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

func (*SES) Close() error { return nil }
