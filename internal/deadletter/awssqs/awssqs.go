/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package awssqs

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/go-errors/errors"
	config "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
)

// SQS accepts at most ten entries per batch request
const maxBatchEntries = 10

func init() {
	deadletter.RegisterHandler(config.AwsSQS, newAwsSqsHandler)
}

type awsSqsHandler struct {
	queueUrl *string
	fifo     bool
	awsSqs   *sqs.SQS
	encoder  *encoding.JsonEncoder
}

func newAwsSqsHandler(
	c *config.Config,
) (deadletter.Handler, error) {

	queueUrl := config.GetOrDefault[*string](c, config.PropertySqsQueueUrl, nil)
	if queueUrl == nil {
		return nil, failure.New(failure.Configuration, "AWS SQS dead letters need the queue url to be configured")
	}

	awsRegion := config.GetOrDefault[*string](c, config.PropertySqsAwsRegion, nil)
	endpoint := config.GetOrDefault(c, config.PropertySqsAwsEndpoint, "")
	accessKeyId := config.GetOrDefault(c, config.PropertySqsAwsAccessKeyId, "")
	secretAccessKey := config.GetOrDefault(c, config.PropertySqsAwsSecretAccessKey, "")
	sessionToken := config.GetOrDefault(c, config.PropertySqsAwsSessionToken, "")

	awsConfig := aws.NewConfig().WithEndpoint(endpoint)
	if accessKeyId != "" && secretAccessKey != "" {
		awsConfig = awsConfig.WithCredentials(
			credentials.NewStaticCredentials(accessKeyId, secretAccessKey, sessionToken),
		)
	}

	if awsRegion != nil {
		awsConfig = awsConfig.WithRegion(*awsRegion)
	}

	awsSession, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return &awsSqsHandler{
		queueUrl: queueUrl,
		fifo:     strings.HasSuffix(*queueUrl, ".fifo"),
		awsSqs:   sqs.New(awsSession),
		encoder:  encoding.NewJsonEncoderWithConfig(c),
	}, nil
}

func (a *awsSqsHandler) Start() error {
	return nil
}

func (a *awsSqsHandler) Stop() error {
	return nil
}

func (a *awsSqsHandler) Publish(
	ctx context.Context, letters []deadletter.Letter,
) error {

	for start := 0; start < len(letters); start += maxBatchEntries {
		end := min(start+maxBatchEntries, len(letters))

		entries := make([]*sqs.SendMessageBatchRequestEntry, 0, end-start)
		for i, letter := range letters[start:end] {
			entry, err := a.entry(strconv.Itoa(i), letter)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}

		output, err := a.awsSqs.SendMessageBatchWithContext(ctx, &sqs.SendMessageBatchInput{
			Entries:  entries,
			QueueUrl: a.queueUrl,
		})
		if err != nil {
			return errors.Wrap(err, 0)
		}
		if len(output.Failed) > 0 {
			return errors.Errorf(
				"%d dead letters were not accepted by SQS: %s",
				len(output.Failed), aws.StringValue(output.Failed[0].Message),
			)
		}
	}
	return nil
}

func (a *awsSqsHandler) entry(
	id string, letter deadletter.Letter,
) (*sqs.SendMessageBatchRequestEntry, error) {

	data, err := a.encoder.Marshal(letter)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	entry := &sqs.SendMessageBatchRequestEntry{
		Id:          aws.String(id),
		MessageBody: aws.String(string(data)),
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String(string(letter.Kind))},
		},
	}
	if a.fifo {
		hash := sha256.New()
		hash.Write([]byte(fmt.Sprintf("%s-%d-%s", letter.Key(), letter.Ordinal, data)))
		entry.MessageGroupId = aws.String(letter.Job)
		entry.MessageDeduplicationId = aws.String(fmt.Sprintf("%X", hash.Sum(nil)))
	}
	return entry, nil
}
