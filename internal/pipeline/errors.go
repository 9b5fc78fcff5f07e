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

package pipeline

import "fmt"

// DownstreamFault wraps an error from a collaborator (search, SQL engine,
// generation). It is absorbed at the controller boundary and converted into a
// user-facing answer; it never propagates to the transport layer.
type DownstreamFault struct {
	Stage string
	Err   error
}

func (e *DownstreamFault) Error() string {
	return fmt.Sprintf("downstream fault in %s: %v", e.Stage, e.Err)
}

func (e *DownstreamFault) Unwrap() error {
	return e.Err
}
