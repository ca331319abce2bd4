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
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Artifact", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("creates the output directory and writes the body verbatim", func() {
		path := filepath.Join(dir, "output", "deployment.yaml")
		a, err := Write(path, serviceYAML)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Path).To(Equal(path))
		Expect(a.Body).To(Equal(serviceYAML))

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(serviceYAML))
	})

	It("overwrites previous content", func() {
		path := filepath.Join(dir, "deployment.yaml")
		_, err := Write(path, deploymentYAML)
		Expect(err).NotTo(HaveOccurred())
		_, err = Write(path, serviceYAML)
		Expect(err).NotTo(HaveOccurred())

		a, err := Open(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Body).To(Equal(serviceYAML))
	})

	It("is idempotent on directory creation", func() {
		path := filepath.Join(dir, "out", "m.yaml")
		for i := 0; i < 2; i++ {
			_, err := Write(path, "x")
			Expect(err).NotTo(HaveOccurred())
		}
	})

	It("rejects an empty path", func() {
		_, err := Write("", serviceYAML)
		Expect(err).To(MatchError(ContainSubstring("path is empty")))
	})

	It("fails to open a missing artifact", func() {
		_, err := Open(filepath.Join(dir, "missing.yaml"))
		Expect(err).To(MatchError(ContainSubstring("cannot read manifest")))
	})

	It("validates its own body", func() {
		a := &Artifact{Body: deploymentYAML}
		resources, err := a.Validate()
		Expect(err).NotTo(HaveOccurred())
		Expect(resources).To(HaveLen(1))
	})
})
