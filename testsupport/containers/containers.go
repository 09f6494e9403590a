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

package containers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/noctarius/es-bulk-exporter/internal/supporting/logging"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

const (
	redisImage      = "redis:7"
	localStackImage = "localstack/localstack:3.0.1"
)

// LocalStackService selects the AWS service LocalStack loads
// eagerly, together with its service specific settings.
type LocalStackService struct {
	name string
	env  map[string]string
}

var (
	SQS = LocalStackService{
		name: "sqs",
		env: map[string]string{
			"SQS_ENDPOINT_STRATEGY":          "path",
			"SQS_DISABLE_CLOUDWATCH_METRICS": "1",
		},
	}
	Kinesis = LocalStackService{
		name: "kinesis",
	}
)

// Redis starts a redis container terminated at the end of the test
// and returns its host:port address.
func Redis(t testing.TB) string {
	ctx := context.Background()
	container, err := redis.Run(ctx, redisImage,
		testcontainers.WithLogConsumers(newLogConsumer(t, "testcontainers-redis")),
	)
	terminateOnCleanup(t, container)
	require.NoError(t, err)
	return endpoint(t, container, "6379/tcp", "%s:%d")
}

// LocalStack starts a LocalStack container serving the given
// service and returns its endpoint url.
func LocalStack(t testing.TB, service LocalStackService) string {
	env := map[string]string{
		"EAGER_SERVICE_LOADING": "1",
		"SERVICES":              service.name,
	}
	for key, value := range service.env {
		env[key] = value
	}

	ctx := context.Background()
	container, err := localstack.Run(ctx, localStackImage,
		testcontainers.WithEnv(env),
		testcontainers.WithLogConsumers(newLogConsumer(t, "testcontainers-localstack")),
	)
	terminateOnCleanup(t, container)
	require.NoError(t, err)
	return endpoint(t, container, "4566/tcp", "http://%s:%d")
}

func terminateOnCleanup(t testing.TB, container testcontainers.Container) {
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminating container failed: %s", err)
		}
	})
}

func endpoint(t testing.TB, container testcontainers.Container, port nat.Port, format string) string {
	ctx := context.Background()
	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)
	return fmt.Sprintf(format, host, mapped.Int())
}

// logConsumer forwards container output into the test logging.
type logConsumer struct {
	logger *logging.Logger
}

func newLogConsumer(t testing.TB, name string) *logConsumer {
	logger, err := logging.NewLogger(name)
	require.NoError(t, err)
	return &logConsumer{logger: logger}
}

func (l *logConsumer) Accept(log testcontainers.Log) {
	line := strings.TrimRight(string(log.Content), "\n")
	if log.LogType == testcontainers.StderrLog {
		l.logger.Warnln(line)
		return
	}
	l.logger.Debugln(line)
}
