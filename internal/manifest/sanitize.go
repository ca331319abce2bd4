/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package manifest handles the model's answer once it comes back: it
// strips markdown fencing, checks that the text is a set of Kubernetes
// objects, and persists it as an Artifact that can later be applied.
package manifest

import "strings"

const (
	// OpenFence is the only opening fence recognised. Fences tagged with
	// another language are not treated as openings.
	OpenFence  = "```yaml"
	CloseFence = "```"
)

// Sanitize extracts the payload from a possibly fenced model response.
//
// If OpenFence occurs, everything up to and including its first occurrence
// is dropped. Then, if CloseFence occurs, its first occurrence and
// everything after it are dropped. The result is trimmed only when a fence
// was removed; a response without fences is returned unchanged.
//
// This is a two-token scan, not a markdown parser. A bare ``` opening
// fence is taken as a closing fence, so "```\nbody\n```" yields "".
func Sanitize(resp string) string {
	if _, after, ok := strings.Cut(resp, OpenFence); ok {
		resp = strings.TrimSpace(after)
	}
	if before, _, ok := strings.Cut(resp, CloseFence); ok {
		resp = strings.TrimSpace(before)
	}
	return resp
}
