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

// Package answer holds the structured answer shape shared by every response
// path and returned to the chat front-end.
package answer

// Answer is the final structured response of the pipeline. Source is a
// generated SQL string, a numbered reference list, or a single markdown link;
// the empty string is the "no source" sentinel, never null.
type Answer struct {
	Answer string `json:"answer"`
	Source string `json:"source"`
}
