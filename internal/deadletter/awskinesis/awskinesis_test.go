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
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/kinesis"
	spiconfig "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/testsupport/containers"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/tidwall/gjson"
)

func Test_AwsKinesis_Configuration(t *testing.T) {
	config := &spiconfig.Config{
		DeadLetter: spiconfig.DeadLetterConfig{
			Type: spiconfig.AwsKinesis,
			Kinesis: spiconfig.KinesisConfig{
				Stream: spiconfig.KinesisStreamConfig{
					Name:       lo.ToPtr("stream_name"),
					Create:     lo.ToPtr(false),
					ShardCount: lo.ToPtr(int64(10)),
					Mode:       lo.ToPtr(kinesis.StreamModeOnDemand),
				},
				Aws: spiconfig.AwsConnectionConfig{
					Region:          lo.ToPtr("aws_region"),
					Endpoint:        "aws_endpoint",
					AccessKeyId:     "aws_access_key_id",
					SecretAccessKey: "aws_secret_access_key",
					SessionToken:    "aws_session_token",
				},
			},
		},
	}

	handler, err := newAwsKinesisHandler(config)
	require.NoError(t, err)

	awsHandler := handler.(*awsKinesisHandler)
	assert.Equal(t, "stream_name", *awsHandler.streamName)
	assert.False(t, awsHandler.streamCreate)
	assert.Equal(t, int64(10), *awsHandler.shardCount)
	assert.Equal(t, kinesis.StreamModeOnDemand, *awsHandler.streamMode)

	credentials, err := awsHandler.awsKinesis.Config.Credentials.Get()
	require.NoError(t, err)
	assert.Equal(t, "aws_region", *awsHandler.awsKinesis.Config.Region)
	assert.Equal(t, "aws_access_key_id", credentials.AccessKeyID)
	assert.Equal(t, "aws_secret_access_key", credentials.SecretAccessKey)
	assert.Equal(t, "aws_session_token", credentials.SessionToken)
}

func Test_AwsKinesis_Missing_Stream(t *testing.T) {
	_, err := newAwsKinesisHandler(&spiconfig.Config{})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Configuration))
}

func Test_AwsKinesis_Publish(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	endpoint := containers.LocalStack(t, containers.Kinesis)

	handler, err := deadletter.NewHandler(spiconfig.AwsKinesis, &spiconfig.Config{
		DeadLetter: spiconfig.DeadLetterConfig{
			Kinesis: spiconfig.KinesisConfig{
				Stream: spiconfig.KinesisStreamConfig{
					Name:       lo.ToPtr("deadletters"),
					ShardCount: lo.ToPtr(int64(1)),
				},
				Aws: spiconfig.AwsConnectionConfig{
					Region:          lo.ToPtr("us-east-1"),
					Endpoint:        endpoint,
					AccessKeyId:     "test",
					SecretAccessKey: "test",
				},
			},
		},
	})
	require.NoError(t, err)
	require.NoError(t, handler.Start())
	defer handler.Stop()

	letters := []deadletter.Letter{
		{Job: "job-1", Partition: "p0", Ordinal: 1, Kind: failure.Resolution, Reason: "null placeholder"},
		{Job: "job-1", Partition: "p0", Ordinal: 2, Kind: failure.Coercion, Reason: "overflow"},
	}
	require.NoError(t, handler.Publish(context.Background(), letters))

	client := handler.(*awsKinesisHandler).awsKinesis
	stream, err := client.DescribeStream(&kinesis.DescribeStreamInput{StreamName: aws.String("deadletters")})
	require.NoError(t, err)

	iterator, err := client.GetShardIterator(&kinesis.GetShardIteratorInput{
		StreamName:        aws.String("deadletters"),
		ShardId:           stream.StreamDescription.Shards[0].ShardId,
		ShardIteratorType: aws.String(kinesis.ShardIteratorTypeTrimHorizon),
	})
	require.NoError(t, err)

	records, err := client.GetRecords(&kinesis.GetRecordsInput{ShardIterator: iterator.ShardIterator})
	require.NoError(t, err)
	require.Len(t, records.Records, 2)
	assert.Equal(t, "job-1/p0", *records.Records[0].PartitionKey)
	assert.Equal(t, "null placeholder", gjson.GetBytes(records.Records[0].Data, "reason").String())
	assert.Equal(t, "coercion", gjson.GetBytes(records.Records[1].Data, "kind").String())
}
