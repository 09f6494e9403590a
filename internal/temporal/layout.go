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

package temporal

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-errors/errors"
)

type token struct {
	letter  rune
	width   int
	literal string
}

// Layout is a compiled Joda-style date format pattern such as
// "YYYY-MM-dd" or "yyyy.MM.dd'T'HH".
type Layout struct {
	pattern string
	tokens  []token
}

// CompileLayout validates and compiles a date format pattern.
// Unknown pattern letters are rejected.
func CompileLayout(
	pattern string,
) (*Layout, error) {

	if pattern == "" {
		return nil, errors.Errorf("empty date format")
	}

	tokens := make([]token, 0)
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\'':
			end := i + 1
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			if end >= len(runes) {
				return nil, errors.Errorf("unterminated quote in date format '%s'", pattern)
			}
			literal := string(runes[i+1 : end])
			if literal == "" {
				literal = "'"
			}
			tokens = append(tokens, token{literal: literal})
			i = end + 1
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			if !strings.ContainsRune("yYuMdDHhkKmsSaEZ", r) {
				return nil, errors.Errorf("unsupported letter '%c' in date format '%s'", r, pattern)
			}
			width := 1
			for i+width < len(runes) && runes[i+width] == r {
				width++
			}
			tokens = append(tokens, token{letter: r, width: width})
			i += width
		default:
			tokens = append(tokens, token{literal: string(r)})
			i++
		}
	}
	return &Layout{
		pattern: pattern,
		tokens:  tokens,
	}, nil
}

func (l *Layout) String() string {
	return l.pattern
}

// Format renders t according to the compiled pattern. Week-based
// years (Y) are rendered as calendar years.
func (l *Layout) Format(
	t time.Time,
) string {

	builder := strings.Builder{}
	for _, tk := range l.tokens {
		if tk.letter == 0 {
			builder.WriteString(tk.literal)
			continue
		}
		switch tk.letter {
		case 'y', 'Y', 'u':
			if tk.width == 2 {
				builder.WriteString(pad(t.Year()%100, 2))
			} else {
				builder.WriteString(pad(t.Year(), tk.width))
			}
		case 'M':
			switch {
			case tk.width >= 4:
				builder.WriteString(t.Month().String())
			case tk.width == 3:
				builder.WriteString(t.Month().String()[:3])
			default:
				builder.WriteString(pad(int(t.Month()), tk.width))
			}
		case 'd':
			builder.WriteString(pad(t.Day(), tk.width))
		case 'D':
			builder.WriteString(pad(t.YearDay(), tk.width))
		case 'H':
			builder.WriteString(pad(t.Hour(), tk.width))
		case 'k':
			hour := t.Hour()
			if hour == 0 {
				hour = 24
			}
			builder.WriteString(pad(hour, tk.width))
		case 'h':
			hour := t.Hour() % 12
			if hour == 0 {
				hour = 12
			}
			builder.WriteString(pad(hour, tk.width))
		case 'K':
			builder.WriteString(pad(t.Hour()%12, tk.width))
		case 'm':
			builder.WriteString(pad(t.Minute(), tk.width))
		case 's':
			builder.WriteString(pad(t.Second(), tk.width))
		case 'S':
			fraction := pad(t.Nanosecond(), 9)
			if tk.width <= 9 {
				builder.WriteString(fraction[:tk.width])
			} else {
				builder.WriteString(fraction + strings.Repeat("0", tk.width-9))
			}
		case 'a':
			builder.WriteString(t.Format("PM"))
		case 'E':
			if tk.width >= 4 {
				builder.WriteString(t.Weekday().String())
			} else {
				builder.WriteString(t.Weekday().String()[:3])
			}
		case 'Z':
			if tk.width >= 2 {
				builder.WriteString(t.Format("-07:00"))
			} else {
				builder.WriteString(t.Format("-0700"))
			}
		}
	}
	return builder.String()
}

func pad(
	value, width int,
) string {

	s := strconv.Itoa(value)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
