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

package config

const (
	PropertyResourceIndex      = "resource.index"
	PropertyResourceAutoCreate = "resource.autocreate"

	PropertyMappingNames         = "mapping.names"
	PropertyMappingId            = "mapping.id"
	PropertyMappingParent        = "mapping.parent"
	PropertyMappingRouting       = "mapping.routing"
	PropertyMappingVersion       = "mapping.version"
	PropertyMappingTtl           = "mapping.ttl"
	PropertyMappingTimestamp     = "mapping.timestamp"
	PropertyMappingInclude       = "mapping.include"
	PropertyMappingExclude       = "mapping.exclude"
	PropertyMappingDateDetection = "mapping.datedetection"

	PropertyWriteOperation = "write.operation"
	PropertyWriteFailFast  = "write.failfast"

	PropertyBatchEntries           = "batch.entries"
	PropertyBatchBytes             = "batch.bytes"
	PropertyBatchRetryCount        = "batch.retry.count"
	PropertyBatchRetryWait         = "batch.retry.wait"
	PropertyBatchFlushTimeout      = "batch.flush.timeout"
	PropertyBatchRequestsPerSecond = "batch.requestspersecond"

	PropertySchemaColumns = "schema.columns"

	PropertySourceFormat              = "source.format"
	PropertySourcePaths               = "source.paths"
	PropertySourceDelimiterField      = "source.delimiters.field"
	PropertySourceDelimiterCollection = "source.delimiters.collection"
	PropertySourceDelimiterMapKey     = "source.delimiters.mapkey"
	PropertySourceNull                = "source.null"
	PropertySourceColumns             = "source.columns"
	PropertySourceProjection          = "source.projection"

	PropertyWorkers = "workers"

	PropertySink              = "sink.type"
	PropertyMemoryIndices     = "sink.memory.indices"
	PropertyHttpUrl           = "sink.http.url"
	PropertyHttpDialect       = "sink.http.dialect"
	PropertyHttpTlsEnabled    = "sink.http.tls.enabled"
	PropertyHttpTlsSkipVerify = "sink.http.tls.skipverify"
	PropertyHttpTlsClientAuth = "sink.http.tls.clientauth"

	PropertyHttpAuthenticationType              = "sink.http.authentication.type"
	PropertyHttpBasicAuthenticationUsername     = "sink.http.authentication.basic.username"
	PropertyHttpBasicAuthenticationPassword     = "sink.http.authentication.basic.password"
	PropertyHttpHeaderAuthenticationHeaderName  = "sink.http.authentication.header.name"
	PropertyHttpHeaderAuthenticationHeaderValue = "sink.http.authentication.header.value"

	PropertyElasticsearchAddresses     = "sink.elasticsearch.addresses"
	PropertyElasticsearchUsername      = "sink.elasticsearch.username"
	PropertyElasticsearchPassword      = "sink.elasticsearch.password"
	PropertyElasticsearchApiKey        = "sink.elasticsearch.apikey"
	PropertyElasticsearchCloudId       = "sink.elasticsearch.cloudid"
	PropertyElasticsearchTlsSkipVerify = "sink.elasticsearch.tls.skipverify"

	PropertyDeadLetter = "deadletter.type"

	PropertyKafkaBrokers       = "deadletter.kafka.brokers"
	PropertyKafkaTopic         = "deadletter.kafka.topic"
	PropertyKafkaIdempotent    = "deadletter.kafka.idempotent"
	PropertyKafkaSaslEnabled   = "deadletter.kafka.sasl.enabled"
	PropertyKafkaSaslUser      = "deadletter.kafka.sasl.user"
	PropertyKafkaSaslPassword  = "deadletter.kafka.sasl.password"
	PropertyKafkaSaslMechanism = "deadletter.kafka.sasl.mechanism"
	PropertyKafkaTlsEnabled    = "deadletter.kafka.tls.enabled"
	PropertyKafkaTlsSkipVerify = "deadletter.kafka.tls.skipverify"
	PropertyKafkaTlsClientAuth = "deadletter.kafka.tls.clientauth"

	PropertyNatsAddress                = "deadletter.nats.address"
	PropertyNatsSubject                = "deadletter.nats.subject"
	PropertyNatsAuthorization          = "deadletter.nats.authorization"
	PropertyNatsUserinfoUsername       = "deadletter.nats.userinfo.username"
	PropertyNatsUserinfoPassword       = "deadletter.nats.userinfo.password"
	PropertyNatsCredentialsCertificate = "deadletter.nats.credentials.certificate"
	PropertyNatsCredentialsSeeds       = "deadletter.nats.credentials.seeds"
	PropertyNatsJwt                    = "deadletter.nats.jwt.jwt"
	PropertyNatsJwtSeed                = "deadletter.nats.jwt.seed"

	PropertyRedisNetwork           = "deadletter.redis.network"
	PropertyRedisAddress           = "deadletter.redis.address"
	PropertyRedisPassword          = "deadletter.redis.password"
	PropertyRedisDatabase          = "deadletter.redis.database"
	PropertyRedisStream            = "deadletter.redis.stream"
	PropertyRedisPoolsize          = "deadletter.redis.poolsize"
	PropertyRedisRetriesMax        = "deadletter.redis.retries.maxattempts"
	PropertyRedisRetriesBackoffMin = "deadletter.redis.retries.backoff.min"
	PropertyRedisRetriesBackoffMax = "deadletter.redis.retries.backoff.max"
	PropertyRedisTimeoutDial       = "deadletter.redis.timeouts.dial"
	PropertyRedisTimeoutRead       = "deadletter.redis.timeouts.read"
	PropertyRedisTimeoutWrite      = "deadletter.redis.timeouts.write"
	PropertyRedisTimeoutPool       = "deadletter.redis.timeouts.pool"
	PropertyRedisTimeoutIdle       = "deadletter.redis.timeouts.idle"
	PropertyRedisTlsEnabled        = "deadletter.redis.tls.enabled"
	PropertyRedisTlsSkipVerify     = "deadletter.redis.tls.skipverify"
	PropertyRedisTlsClientAuth     = "deadletter.redis.tls.clientauth"

	PropertySqsQueueUrl           = "deadletter.sqs.queue.url"
	PropertySqsAwsRegion          = "deadletter.sqs.aws.region"
	PropertySqsAwsEndpoint        = "deadletter.sqs.aws.endpoint"
	PropertySqsAwsAccessKeyId     = "deadletter.sqs.aws.accesskeyid"
	PropertySqsAwsSecretAccessKey = "deadletter.sqs.aws.secretaccesskey"
	PropertySqsAwsSessionToken    = "deadletter.sqs.aws.sessiontoken"

	PropertyKinesisStreamName         = "deadletter.kinesis.stream.name"
	PropertyKinesisStreamCreate       = "deadletter.kinesis.stream.create"
	PropertyKinesisStreamShardCount   = "deadletter.kinesis.stream.shardcount"
	PropertyKinesisStreamMode         = "deadletter.kinesis.stream.mode"
	PropertyKinesisRegion             = "deadletter.kinesis.aws.region"
	PropertyKinesisAwsEndpoint        = "deadletter.kinesis.aws.endpoint"
	PropertyKinesisAwsAccessKeyId     = "deadletter.kinesis.aws.accesskeyid"
	PropertyKinesisAwsSecretAccessKey = "deadletter.kinesis.aws.secretaccesskey"
	PropertyKinesisAwsSessionToken    = "deadletter.kinesis.aws.sessiontoken"

	PropertyStatsEnabled        = "stats.enabled"
	PropertyStatsAddress        = "stats.address"
	PropertyRuntimeStatsEnabled = "stats.runtime.enabled"

	PropertyEncodingCustomReflection = "internal.encoding.customreflection"
)
