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

import (
	"crypto/tls"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

type SinkType string

const (
	Memory        SinkType = "memory"
	Stdout        SinkType = "stdout"
	Http          SinkType = "http"
	Elasticsearch SinkType = "elasticsearch"
)

type DeadLetterType string

const (
	NoDeadLetter     DeadLetterType = "none"
	StdoutDeadLetter DeadLetterType = "stdout"
	Kafka            DeadLetterType = "kafka"
	NATS             DeadLetterType = "nats"
	Redis            DeadLetterType = "redis"
	AwsSQS           DeadLetterType = "aws_sqs"
	AwsKinesis       DeadLetterType = "aws_kinesis"
)

type SourceFormat string

const (
	Delimited SourceFormat = "delimited"
	JsonLines SourceFormat = "jsonlines"
)

type BulkDialect string

const (
	Legacy BulkDialect = "legacy"
	Modern BulkDialect = "modern"
	// AutoDialect asks the store for its version on start
	AutoDialect BulkDialect = "auto"
)

type NatsAuthorizationType string

const (
	UserInfo    NatsAuthorizationType = "userinfo"
	Credentials NatsAuthorizationType = "credentials"
	Jwt         NatsAuthorizationType = "jwt"
)

type HttpAuthenticationType string

const (
	NoneAuthentication   HttpAuthenticationType = "none"
	BasicAuthentication  HttpAuthenticationType = "basic"
	HeaderAuthentication HttpAuthenticationType = "header"
)

type Config struct {
	Resource   ResourceConfig          `toml:"resource"`
	Mapping    MappingConfig           `toml:"mapping"`
	Write      WriteConfig             `toml:"write"`
	Batch      BatchConfig             `toml:"batch"`
	Schema     SchemaConfig            `toml:"schema"`
	Source     SourceConfig            `toml:"source"`
	Filters    map[string]FilterConfig `toml:"filters"`
	Sink       SinkConfig              `toml:"sink"`
	DeadLetter DeadLetterConfig        `toml:"deadletter"`
	Workers    uint                    `toml:"workers"`
	Stats      StatsConfig             `toml:"stats"`
	Logging    LoggerConfig            `toml:"logging"`
	Internal   InternalConfig          `toml:"internal"`
}

type InternalConfig struct {
	Encoding EncodingConfig `toml:"encoding"`
}

type EncodingConfig struct {
	CustomReflection *bool `toml:"customreflection"`
}

type ResourceConfig struct {
	Index      string `toml:"index"`
	AutoCreate *bool  `toml:"autocreate"`
}

type MappingConfig struct {
	Names         string   `toml:"names"`
	Id            string   `toml:"id"`
	Parent        string   `toml:"parent"`
	Routing       string   `toml:"routing"`
	Version       string   `toml:"version"`
	TTL           string   `toml:"ttl"`
	Timestamp     string   `toml:"timestamp"`
	Include       []string `toml:"include"`
	Exclude       []string `toml:"exclude"`
	DateDetection *bool    `toml:"datedetection"`
}

type WriteConfig struct {
	Operation string `toml:"operation"`
	FailFast  *bool  `toml:"failfast"`
}

type BatchConfig struct {
	Entries           int              `toml:"entries"`
	Bytes             string           `toml:"bytes"`
	Retry             BatchRetryConfig `toml:"retry"`
	Flush             BatchFlushConfig `toml:"flush"`
	RequestsPerSecond float64          `toml:"requestspersecond"`
}

type BatchRetryConfig struct {
	Count int           `toml:"count"`
	Wait  time.Duration `toml:"wait"`
}

type BatchFlushConfig struct {
	Timeout time.Duration `toml:"timeout"`
}

type SchemaConfig struct {
	Columns string `toml:"columns"`
}

type SourceConfig struct {
	Format     SourceFormat      `toml:"format"`
	Paths      []string          `toml:"paths"`
	Delimiters DelimiterConfig   `toml:"delimiters"`
	Null       string            `toml:"null"`
	Columns    string            `toml:"columns"`
	Projection map[string]string `toml:"projection"`
}

type DelimiterConfig struct {
	Field      string `toml:"field"`
	Collection string `toml:"collection"`
	MapKey     string `toml:"mapkey"`
}

type FilterConfig struct {
	DefaultValue *bool  `toml:"default"`
	Condition    string `toml:"condition"`
}

type SinkConfig struct {
	Type          SinkType            `toml:"type"`
	Memory        MemoryConfig        `toml:"memory"`
	Http          HttpConfig          `toml:"http"`
	Elasticsearch ElasticsearchConfig `toml:"elasticsearch"`
}

type MemoryConfig struct {
	Indices []string `toml:"indices"`
}

type HttpConfig struct {
	Url            string                   `toml:"url"`
	Dialect        BulkDialect              `toml:"dialect"`
	Authentication HttpAuthenticationConfig `toml:"authentication"`
	TLS            TLSConfig                `toml:"tls"`
}

type HttpAuthenticationConfig struct {
	Type   HttpAuthenticationType         `toml:"type"`
	Basic  HttpBasicAuthenticationConfig  `toml:"basic"`
	Header HttpHeaderAuthenticationConfig `toml:"header"`
}

type HttpBasicAuthenticationConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type HttpHeaderAuthenticationConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type ElasticsearchConfig struct {
	Addresses []string  `toml:"addresses"`
	Username  string    `toml:"username"`
	Password  string    `toml:"password"`
	ApiKey    string    `toml:"apikey"`
	CloudId   string    `toml:"cloudid"`
	TLS       TLSConfig `toml:"tls"`
}

type DeadLetterConfig struct {
	Type    DeadLetterType `toml:"type"`
	Kafka   KafkaConfig    `toml:"kafka"`
	Nats    NatsConfig     `toml:"nats"`
	Redis   RedisConfig    `toml:"redis"`
	Sqs     SqsConfig      `toml:"sqs"`
	Kinesis KinesisConfig  `toml:"kinesis"`
}

type NatsUserInfoConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type NatsCredentialsConfig struct {
	Certificate string   `toml:"certificate"`
	Seeds       []string `toml:"seeds"`
}

type NatsJWTConfig struct {
	JWT  string `toml:"jwt"`
	Seed string `toml:"seed"`
}

type NatsConfig struct {
	Address       string                `toml:"address"`
	Subject       string                `toml:"subject"`
	Authorization NatsAuthorizationType `toml:"authorization"`
	UserInfo      NatsUserInfoConfig    `toml:"userinfo"`
	Credentials   NatsCredentialsConfig `toml:"credentials"`
	JWT           NatsJWTConfig         `toml:"jwt"`
}

type KafkaSaslConfig struct {
	Enabled   bool                 `toml:"enabled"`
	User      string               `toml:"user"`
	Password  string               `toml:"password"`
	Mechanism sarama.SASLMechanism `toml:"mechanism"`
}

type KafkaConfig struct {
	Brokers    []string        `toml:"brokers"`
	Topic      string          `toml:"topic"`
	Idempotent bool            `toml:"idempotent"`
	Sasl       KafkaSaslConfig `toml:"sasl"`
	TLS        TLSConfig       `toml:"tls"`
}

type RedisConfig struct {
	Network  string             `toml:"network"`
	Address  string             `toml:"address"`
	Password string             `toml:"password"`
	Database int                `toml:"database"`
	Stream   string             `toml:"stream"`
	Retries  RedisRetryConfig   `toml:"retries"`
	Timeouts RedisTimeoutConfig `toml:"timeouts"`
	PoolSize int                `toml:"poolsize"`
	TLS      TLSConfig          `toml:"tls"`
}

type RedisRetryConfig struct {
	MaxAttempts int                     `toml:"maxattempts"`
	Backoff     RedisRetryBackoffConfig `toml:"backoff"`
}

type RedisRetryBackoffConfig struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

type RedisTimeoutConfig struct {
	Dial  int `toml:"dial"`
	Read  int `toml:"read"`
	Write int `toml:"write"`
	Pool  int `toml:"pool"`
	Idle  int `toml:"idle"`
}

type AwsConnectionConfig struct {
	Region          *string `toml:"region"`
	Endpoint        string  `toml:"endpoint"`
	AccessKeyId     string  `toml:"accesskeyid"`
	SecretAccessKey string  `toml:"secretaccesskey"`
	SessionToken    string  `toml:"sessiontoken"`
}

type SqsQueueConfig struct {
	Url *string `toml:"url"`
}

type SqsConfig struct {
	Queue SqsQueueConfig      `toml:"queue"`
	Aws   AwsConnectionConfig `toml:"aws"`
}

type KinesisStreamConfig struct {
	Name       *string `toml:"name"`
	Create     *bool   `toml:"create"`
	ShardCount *int64  `toml:"shardcount"`
	Mode       *string `toml:"mode"`
}

type KinesisConfig struct {
	Stream KinesisStreamConfig `toml:"stream"`
	Aws    AwsConnectionConfig `toml:"aws"`
}

type TLSConfig struct {
	Enabled    bool               `toml:"enabled"`
	SkipVerify bool               `toml:"skipverify"`
	ClientAuth tls.ClientAuthType `toml:"clientauth"`
}

type StatsConfig struct {
	Enabled *bool              `toml:"enabled"`
	Address string             `toml:"address"`
	Runtime RuntimeStatsConfig `toml:"runtime"`
}

type RuntimeStatsConfig struct {
	Enabled *bool `toml:"enabled"`
}

type LoggerConfig struct {
	Level   string                     `toml:"level"`
	Outputs LoggerOutputConfig         `toml:"output"`
	Loggers map[string]SubLoggerConfig `toml:"loggers"`
}

type LoggerOutputConfig struct {
	Console LoggerConsoleConfig `toml:"console"`
	File    LoggerFileConfig    `toml:"file"`
}

type SubLoggerConfig struct {
	Level   *string            `toml:"level"`
	Outputs LoggerOutputConfig `toml:"output"`
}

type LoggerConsoleConfig struct {
	Enabled *bool `toml:"enabled"`
}

type LoggerFileConfig struct {
	Enabled     *bool          `toml:"enabled"`
	Path        string         `toml:"path"`
	Rotate      *bool          `toml:"rotate"`
	MaxSize     *string        `toml:"maxsize"`
	MaxDuration *time.Duration `toml:"maxduration"`
	Compress    bool           `toml:"compress"`
}

func GetOrDefault[V any](config *Config, canonicalProperty string, defaultValue V) V {
	if env, found := findEnvProperty(canonicalProperty, defaultValue); found {
		return env
	}

	properties := strings.Split(canonicalProperty, ".")

	element := reflect.ValueOf(*config)
	for _, property := range properties {
		if element.Kind() == reflect.Map {
			e := element.MapIndex(reflect.ValueOf(property))
			if !e.IsValid() {
				return defaultValue
			}
			element = e
			continue
		}
		if e, ok := findProperty(element, property); ok {
			element = e
		} else {
			return defaultValue
		}
	}

	if !element.IsZero() &&
		!(element.Kind() == reflect.Ptr && element.IsNil()) {

		t := reflect.TypeOf(defaultValue)
		if element.Kind() == reflect.Ptr && !element.Type().ConvertibleTo(t) {
			element = element.Elem()
		}

		if !element.Type().ConvertibleTo(t) {
			return defaultValue
		}
		return element.Convert(t).Interface().(V)
	}
	return defaultValue
}

func findEnvProperty[V any](canonicalProperty string, defaultValue V) (V, bool) {
	envVarName := strings.ToUpper(canonicalProperty)
	envVarName = strings.ReplaceAll(envVarName, "_", "__")
	envVarName = strings.ReplaceAll(envVarName, ".", "_")
	if val, ok := os.LookupEnv(envVarName); ok {
		if cv, ok := parseEnvValue(val, reflect.TypeOf(defaultValue)); ok {
			if !cv.IsZero() &&
				!(cv.Kind() == reflect.Ptr && cv.IsNil()) {
				return cv.Interface().(V), true
			}
		}
	}
	return defaultValue, false
}

var durationType = reflect.TypeOf(time.Duration(0))

func parseEnvValue(value string, t reflect.Type) (reflect.Value, bool) {
	if t == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(d), true
	}

	target := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		target.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return reflect.Value{}, false
		}
		target.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, false
		}
		target.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, false
		}
		target.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, t.Bits())
		if err != nil {
			return reflect.Value{}, false
		}
		target.SetFloat(f)
	case reflect.Slice:
		if t.Elem().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		items := strings.Split(value, ",")
		slice := reflect.MakeSlice(t, 0, len(items))
		for _, item := range items {
			slice = reflect.Append(slice, reflect.ValueOf(strings.TrimSpace(item)).Convert(t.Elem()))
		}
		target.Set(slice)
	default:
		return reflect.Value{}, false
	}
	return target, true
}

func findProperty(element reflect.Value, property string) (reflect.Value, bool) {
	if element.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	t := element.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" && !f.Anonymous {
			continue
		}

		if f.Tag.Get("toml") == property {
			return element.Field(i), true
		}
	}
	return reflect.Value{}, false
}
