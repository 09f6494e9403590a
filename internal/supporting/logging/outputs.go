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

package logging

import (
	"os"
	"sync"

	"github.com/go-errors/errors"
	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
	"github.com/gookit/slog/rotatefile"
	"github.com/inhies/go-bytesize"
	spiconfig "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
)

const defaultMaxSize = 5 * bytesize.MB

const (
	plainTemplate  = "[{{datetime}}] [{{level}}] {{message}} {{data}} {{extra}}\n"
	callerTemplate = "[{{datetime}}] [{{level}}] [{{caller}}] {{message}} {{data}} {{extra}}\n"
)

// outputs are shared by all loggers. File handlers are opened
// once per path.
var outputs = &outputRegistry{
	consoleEnabled: true,
	files:          make(map[string]*handler.SyncCloseHandler),
}

type outputRegistry struct {
	console        slog.Handler
	consoleEnabled bool
	file           *handler.SyncCloseHandler
	mutex          sync.Mutex
	files          map[string]*handler.SyncCloseHandler
}

func (o *outputRegistry) defaults() []slog.Handler {
	handlers := make([]slog.Handler, 0, 2)
	if o.consoleEnabled {
		handlers = append(handlers, o.console)
	}
	if o.file != nil {
		handlers = append(handlers, o.file)
	}
	return handlers
}

func (o *outputRegistry) forLogger(config spiconfig.LoggerOutputConfig) ([]slog.Handler, error) {
	handlers := make([]slog.Handler, 0, 2)
	if enabled(config.Console.Enabled, true) {
		handlers = append(handlers, o.console)
	}
	fileHandler, err := openFileOutput(config.File)
	if err != nil {
		return nil, err
	}
	if fileHandler == nil {
		fileHandler = o.file
	}
	if fileHandler != nil {
		handlers = append(handlers, fileHandler)
	}
	return handlers, nil
}

// Shutdown flushes and closes all file outputs.
func Shutdown() error {
	outputs.mutex.Lock()
	defer outputs.mutex.Unlock()

	var result error
	for path, fileHandler := range outputs.files {
		if err := fileHandler.Close(); err != nil && result == nil {
			result = errors.Wrap(err, 0)
		}
		delete(outputs.files, path)
	}
	outputs.file = nil
	return result
}

func newConsoleHandler(logToStdErr bool) slog.Handler {
	consoleHandler := handler.NewConsoleHandler(slog.AllLevels)
	if logToStdErr {
		*consoleHandler = *handler.NewIOWriterHandler(os.Stderr, slog.AllLevels)
	}
	template := plainTemplate
	if WithCaller {
		template = callerTemplate
	}
	consoleHandler.TextFormatter().SetTemplate(template)
	return &syncConsoleHandler{ConsoleHandler: consoleHandler}
}

// syncConsoleHandler serializes writes of concurrent workers.
type syncConsoleHandler struct {
	*handler.ConsoleHandler
	mutex sync.Mutex
}

func (h *syncConsoleHandler) Handle(record *slog.Record) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.ConsoleHandler.Handle(record)
}

// openFileOutput returns nil if the file output is disabled.
// Without rotation the file is buffered, with rotation it rolls
// over by time if a max duration is set and by size otherwise.
func openFileOutput(config spiconfig.LoggerFileConfig) (*handler.SyncCloseHandler, error) {
	if !enabled(config.Enabled, false) {
		return nil, nil
	}

	outputs.mutex.Lock()
	defer outputs.mutex.Unlock()

	if h, ok := outputs.files[config.Path]; ok {
		return h, nil
	}

	configurator := func(c *handler.Config) {
		c.Levels = slog.AllLevels
		c.Level = slog.TraceLevel
		c.Compress = config.Compress
	}

	var fileHandler *handler.SyncCloseHandler
	var err error
	switch {
	case !enabled(config.Rotate, false):
		fileHandler, err = handler.NewBuffFileHandler(config.Path, 1024, configurator)

	case config.MaxDuration != nil:
		seconds := rotatefile.RotateTime(config.MaxDuration.Seconds())
		fileHandler, err = handler.NewTimeRotateFileHandler(config.Path, seconds, configurator)

	default:
		maxSize := defaultMaxSize
		if config.MaxSize != nil {
			if maxSize, err = bytesize.Parse(*config.MaxSize); err != nil {
				return nil, failure.New(
					failure.Configuration, "invalid max size '%s' of log file %s: %s", *config.MaxSize, config.Path, err,
				)
			}
		}
		fileHandler, err = handler.NewSizeRotateFileHandler(config.Path, int(maxSize), configurator)
	}
	if err != nil {
		return nil, failure.New(failure.Configuration, "cannot open log file %s: %s", config.Path, err)
	}

	outputs.files[config.Path] = fileHandler
	return fileHandler, nil
}
