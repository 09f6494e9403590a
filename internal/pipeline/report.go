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

package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
)

// Failure is a row which could not be written.
type Failure struct {
	Partition string
	Ordinal   int64
	Index     string
	Id        string
	Kind      failure.Kind
	Reason    string
	document  *document.Object
}

func (f Failure) String() string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("%s#%d", f.Partition, f.Ordinal))
	if f.Index != "" {
		builder.WriteString(" -> " + f.Index)
		if f.Id != "" {
			builder.WriteString("/" + f.Id)
		}
	}
	builder.WriteString(fmt.Sprintf(" [%s] %s", f.Kind, f.Reason))
	return builder.String()
}

func (f Failure) letter(
	job string, timestamp time.Time,
) deadletter.Letter {

	return deadletter.Letter{
		Job:       job,
		Partition: f.Partition,
		Ordinal:   f.Ordinal,
		Kind:      f.Kind,
		Reason:    f.Reason,
		Index:     f.Index,
		Id:        f.Id,
		Document:  f.document,
		Timestamp: timestamp,
	}
}

// PartitionReport counts what a single exporter did.
type PartitionReport struct {
	Partition string
	Read      int64
	Filtered  int64
	Written   int64
	Failed    int64
	Batches   int
	Retries   int
	Failures  []Failure
}

// Report is the outcome of a job.
type Report struct {
	JobId      string
	Partitions []*PartitionReport
	Duration   time.Duration
	// Err is the job level error, like a configuration problem,
	// exhausted retries or cancellation.
	Err error
}

func (r *Report) sum(
	value func(p *PartitionReport) int64,
) int64 {

	total := int64(0)
	for _, p := range r.Partitions {
		if p != nil {
			total += value(p)
		}
	}
	return total
}

func (r *Report) Read() int64 {
	return r.sum(func(p *PartitionReport) int64 { return p.Read })
}

func (r *Report) Filtered() int64 {
	return r.sum(func(p *PartitionReport) int64 { return p.Filtered })
}

func (r *Report) Written() int64 {
	return r.sum(func(p *PartitionReport) int64 { return p.Written })
}

func (r *Report) Failed() int64 {
	return r.sum(func(p *PartitionReport) int64 { return p.Failed })
}

// Failures returns all failed rows, ordered by partition and row.
func (r *Report) Failures() []Failure {
	failures := make([]Failure, 0)
	for _, p := range r.Partitions {
		if p != nil {
			failures = append(failures, p.Failures...)
		}
	}
	return failures
}

// Successful is true only if no row failed and the job completed.
func (r *Report) Successful() bool {
	return r.Err == nil && r.Failed() == 0
}

func (r *Report) String() string {
	status := "succeeded"
	if !r.Successful() {
		status = "failed"
	}
	return fmt.Sprintf(
		"job %s %s after %s: %d read, %d filtered, %d written, %d failed",
		r.JobId, status, r.Duration.Round(time.Millisecond), r.Read(), r.Filtered(), r.Written(), r.Failed(),
	)
}
