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

package awskinesis

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/go-errors/errors"
	config "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
)

// Kinesis accepts at most 500 records per PutRecords request
const maxBatchRecords = 500

func init() {
	deadletter.RegisterHandler(config.AwsKinesis, newAwsKinesisHandler)
}

type awsKinesisHandler struct {
	streamName   *string
	streamCreate bool
	shardCount   *int64
	streamMode   *string
	awsKinesis   *kinesis.Kinesis
	encoder      *encoding.JsonEncoder
}

func newAwsKinesisHandler(
	c *config.Config,
) (deadletter.Handler, error) {

	streamName := config.GetOrDefault[*string](c, config.PropertyKinesisStreamName, nil)
	if streamName == nil {
		return nil, failure.New(failure.Configuration, "AWS Kinesis dead letters need the stream name to be configured")
	}

	awsRegion := config.GetOrDefault[*string](c, config.PropertyKinesisRegion, nil)
	endpoint := config.GetOrDefault(c, config.PropertyKinesisAwsEndpoint, "")
	accessKeyId := config.GetOrDefault(c, config.PropertyKinesisAwsAccessKeyId, "")
	secretAccessKey := config.GetOrDefault(c, config.PropertyKinesisAwsSecretAccessKey, "")
	sessionToken := config.GetOrDefault(c, config.PropertyKinesisAwsSessionToken, "")

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

	return &awsKinesisHandler{
		streamName:   streamName,
		streamCreate: config.GetOrDefault(c, config.PropertyKinesisStreamCreate, true),
		shardCount:   config.GetOrDefault[*int64](c, config.PropertyKinesisStreamShardCount, nil),
		streamMode:   config.GetOrDefault[*string](c, config.PropertyKinesisStreamMode, nil),
		awsKinesis:   kinesis.New(awsSession),
		encoder:      encoding.NewJsonEncoderWithConfig(c),
	}, nil
}

// Start makes sure the stream exists, creating it when allowed.
func (a *awsKinesisHandler) Start() error {
	_, err := a.awsKinesis.DescribeStream(&kinesis.DescribeStreamInput{
		StreamName: a.streamName,
	})
	if err == nil {
		return nil
	}

	if awsErr, ok := err.(awserr.Error); !ok || awsErr.Code() != kinesis.ErrCodeResourceNotFoundException {
		return errors.Wrap(err, 0)
	}

	if !a.streamCreate {
		return failure.New(failure.Configuration, "AWS Kinesis stream '%s' doesn't exist", *a.streamName)
	}

	var streamModeDetails *kinesis.StreamModeDetails
	if a.streamMode != nil {
		streamModeDetails = &kinesis.StreamModeDetails{
			StreamMode: a.streamMode,
		}
	}

	if _, err = a.awsKinesis.CreateStream(&kinesis.CreateStreamInput{
		ShardCount:        a.shardCount,
		StreamModeDetails: streamModeDetails,
		StreamName:        a.streamName,
	}); err != nil {
		return errors.Wrap(err, 0)
	}

	if err := a.awsKinesis.WaitUntilStreamExists(&kinesis.DescribeStreamInput{
		StreamName: a.streamName,
	}); err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}

func (a *awsKinesisHandler) Stop() error {
	return nil
}

func (a *awsKinesisHandler) Publish(
	ctx context.Context, letters []deadletter.Letter,
) error {

	for start := 0; start < len(letters); start += maxBatchRecords {
		end := min(start+maxBatchRecords, len(letters))

		records := make([]*kinesis.PutRecordsRequestEntry, 0, end-start)
		for _, letter := range letters[start:end] {
			data, err := a.encoder.Marshal(letter)
			if err != nil {
				return errors.Wrap(err, 0)
			}
			records = append(records, &kinesis.PutRecordsRequestEntry{
				PartitionKey: aws.String(letter.Key()),
				Data:         data,
			})
		}

		output, err := a.awsKinesis.PutRecordsWithContext(ctx, &kinesis.PutRecordsInput{
			StreamName: a.streamName,
			Records:    records,
		})
		if err != nil {
			return errors.Wrap(err, 0)
		}
		if failed := aws.Int64Value(output.FailedRecordCount); failed > 0 {
			return errors.Errorf("%d dead letters were not accepted by Kinesis", failed)
		}
	}
	return nil
}
