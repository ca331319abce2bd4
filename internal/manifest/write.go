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

package manifest

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath is where generated manifests are written when no path is
// configured, relative to the working directory.
const DefaultPath = "output/deployment.yaml"

// Artifact is a manifest that has been written to disk. It is the handle
// passed from generation to apply.
type Artifact struct {
	Path string
	Body string
}

// Write stores body at path, creating parent directories as needed and
// replacing any previous content.
func Write(path, body string) (*Artifact, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return nil, fmt.Errorf("cannot write manifest: %w", err)
	}
	return &Artifact{Path: path, Body: body}, nil
}

// Open loads a previously written artifact.
func Open(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest: %w", err)
	}
	return &Artifact{Path: path, Body: string(data)}, nil
}

// Validate checks the artifact body. See the package-level Validate.
func (a *Artifact) Validate() ([]Resource, error) {
	return Validate(a.Body)
}
