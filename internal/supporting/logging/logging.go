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
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/gookit/slog"
	spiconfig "github.com/noctarius/es-bulk-exporter/spi/config"
)

var WithVerbose = false
var WithCaller = false

const VerboseLevel slog.Level = 650

var levelNames = map[string]slog.Level{
	"panic":   slog.PanicLevel,
	"fatal":   slog.FatalLevel,
	"err":     slog.ErrorLevel,
	"error":   slog.ErrorLevel,
	"warn":    slog.WarnLevel,
	"warning": slog.WarnLevel,
	"notice":  slog.NoticeLevel,
	"info":    slog.InfoLevel,
	"verbose": VerboseLevel,
	"debug":   slog.DebugLevel,
	"trace":   slog.TraceLevel,
}

var (
	loggingConfig spiconfig.LoggerConfig
	defaultLevel  = slog.InfoLevel
)

func init() {
	slog.LevelNames[VerboseLevel] = "VERBOSE"
	slog.AllLevels = slog.Levels{
		slog.PanicLevel, slog.FatalLevel, slog.ErrorLevel, slog.WarnLevel,
		slog.NoticeLevel, slog.InfoLevel, VerboseLevel, slog.DebugLevel, slog.TraceLevel,
	}
	slog.NormalLevels = slog.Levels{
		slog.NoticeLevel, slog.InfoLevel, VerboseLevel, slog.DebugLevel, slog.TraceLevel,
	}
	slog.ColorTheme[VerboseLevel] = color.FgLightGreen
	outputs.console = newConsoleHandler(false)
}

// InitializeLogging applies the logging configuration. Loggers
// created before are not affected.
func InitializeLogging(config *spiconfig.Config, logToStdErr bool) error {
	fileHandler, err := openFileOutput(config.Logging.Outputs.File)
	if err != nil {
		return err
	}

	loggingConfig = config.Logging
	defaultLevel = Name2Level(loggingConfig.Level)
	outputs.console = newConsoleHandler(logToStdErr)
	outputs.consoleEnabled = enabled(loggingConfig.Outputs.Console.Enabled, true)
	outputs.file = fileHandler
	return nil
}

// Name2Level parses a level name, unknown names map to info.
func Name2Level(name string) slog.Level {
	if level, ok := levelNames[strings.ToLower(name)]; ok {
		return level
	}
	return slog.InfoLevel
}

type Logger struct {
	slogger *slog.Logger
	level   slog.Level
	name    string
	label   string
}

// NewLogger creates a logger, configured by the logging.loggers
// entry of the same name if there is one.
func NewLogger(name string) (*Logger, error) {
	return newLogger(name, name)
}

// Named creates a logger sharing the configuration of its parent
// but labelled with a suffix, like a worker number.
func (l *Logger) Named(suffix string) (*Logger, error) {
	return newLogger(l.name, fmt.Sprintf("%s-%s", l.label, suffix))
}

func newLogger(name, label string) (*Logger, error) {
	level := defaultLevel
	handlers := outputs.defaults()

	if config, found := loggingConfig.Loggers[name]; found {
		if config.Level != nil {
			level = Name2Level(*config.Level)
		}
		var err error
		if handlers, err = outputs.forLogger(config.Outputs); err != nil {
			return nil, err
		}
	}

	slogger := slog.NewWithName(label, func(l *slog.Logger) {
		l.CallerSkip += 2
		l.ReportCaller = WithCaller
		l.AddHandlers(handlers...)
	})
	return &Logger{
		slogger: slogger,
		level:   level,
		name:    name,
		label:   label,
	}, nil
}

func (l *Logger) Enabled(level slog.Level) bool {
	return l.level >= level || (level == VerboseLevel && WithVerbose)
}

func (l *Logger) Tracef(format string, args ...any) {
	l.logf(slog.TraceLevel, format, args)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(slog.DebugLevel, format, args)
}

func (l *Logger) Debugln(args ...any) {
	l.log(slog.DebugLevel, args)
}

func (l *Logger) Verbosef(format string, args ...any) {
	l.logf(VerboseLevel, format, args)
}

func (l *Logger) Verboseln(args ...any) {
	l.log(VerboseLevel, args)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(slog.InfoLevel, format, args)
}

func (l *Logger) Infoln(args ...any) {
	l.log(slog.InfoLevel, args)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(slog.WarnLevel, format, args)
}

func (l *Logger) Warnln(args ...any) {
	l.log(slog.WarnLevel, args)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(slog.ErrorLevel, format, args)
}

func (l *Logger) Errorln(args ...any) {
	l.log(slog.ErrorLevel, args)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.logf(slog.FatalLevel, format, args)
}

func (l *Logger) logf(level slog.Level, format string, args []any) {
	if !l.Enabled(level) {
		return
	}
	l.slogger.Logf(level, "["+l.label+"] "+strings.TrimSuffix(format, "\n"), args...)
}

func (l *Logger) log(level slog.Level, args []any) {
	if !l.Enabled(level) {
		return
	}
	l.slogger.Log(level, append([]any{"[" + l.label + "]"}, args...)...)
}

func enabled(flag *bool, otherwise bool) bool {
	if flag == nil {
		return otherwise
	}
	return *flag
}
