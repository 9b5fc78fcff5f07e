// Copyright 2024 SageMaker Chatbot Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package outparse extracts a structured {text, source} answer from free-form
// model output. The model is asked for JSON but not trusted to produce it, so
// the fields are located by quoted key/value patterns rather than a strict
// parse; missing fields default to empty strings, never an error.
package outparse

import (
	"fmt"
	"regexp"
)

var (
	textPattern   = regexp.MustCompile(`"text"\s*:\s*"([^"]*)"`)
	sourcePattern = regexp.MustCompile(`"source"\s*:\s*"([^"]*)`)
	linkPattern   = regexp.MustCompile(`\[(.*?)\]\(([^)]+)\)`)
)

// Parsed is the structured answer extracted from raw model output.
type Parsed struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Parse extracts text and source fields from raw output. A markdown link
// inside the source is decomposed and re-rendered in canonical [title](url)
// form; without a link pattern the raw captured string is kept.
func Parse(raw string) Parsed {
	var parsed Parsed

	if m := textPattern.FindStringSubmatch(raw); m != nil {
		parsed.Text = m[1]
	}

	if m := sourcePattern.FindStringSubmatch(raw); m != nil {
		src := m[1]
		if linkPattern.MatchString(src) {
			title, url := SplitMarkdownLink(src)
			parsed.Source = fmt.Sprintf("[%s](%s)", title, url)
		} else {
			parsed.Source = src
		}
	}

	return parsed
}

// SplitMarkdownLink decomposes a markdown [title](url) pattern. If the source
// contains no link pattern, both parts are the source string itself. When
// multiple links are present the last one wins.
func SplitMarkdownLink(source string) (title, url string) {
	matches := linkPattern.FindAllStringSubmatch(source, -1)
	if len(matches) == 0 {
		return source, source
	}
	for _, m := range matches {
		title = m[1]
		url = m[2]
	}
	return title, url
}
