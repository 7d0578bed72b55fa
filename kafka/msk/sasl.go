// Package msk builds the SASL mechanism for Amazon MSK brokers,
// authenticating with the instance's ec2 role.
package msk

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/ec2rolecreds"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/aws_msk_iam_v2"

	"github.com/slabworks/catalog-sync/e"
)

const (
	ECode080201 = e.Code0802 + "01"
	ECode080202 = e.Code0802 + "02"
)

// NewSASLMechanism returns an IAM SASL mechanism for the region,
// drawing credentials from the instance's ec2 role
func NewSASLMechanism(region string) (sm sasl.Mechanism, err error) {
	if region == "" {
		return nil, e.N(ECode080201, "region not specified")
	}

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, e.W(err, ECode080202)
	}
	cfg.Region = region
	cfg.Credentials = aws.NewCredentialsCache(ec2rolecreds.New())

	return aws_msk_iam_v2.NewMechanism(cfg), nil
}
