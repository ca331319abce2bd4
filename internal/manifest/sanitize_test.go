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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Sanitize", func() {
	const body = "apiVersion: v1\nkind: Service\nmetadata:\n  name: web"

	It("returns exactly the body of a yaml-fenced response", func() {
		Expect(Sanitize("```yaml\n" + body + "\n```")).To(Equal(body))
	})

	It("returns a response without fences unchanged", func() {
		for _, in := range []string{
			body,
			"  " + body + "\n\n",
			"",
			"# Error generating YAML: connection refused",
		} {
			Expect(Sanitize(in)).To(Equal(in))
		}
	})

	DescribeTable("two-token scan",
		func(in, want string) {
			Expect(Sanitize(in)).To(Equal(want))
		},
		Entry("prose before the fence is dropped",
			"Here is your manifest:\n```yaml\n"+body+"\n```", body),
		Entry("prose after the closing fence is dropped",
			"```yaml\n"+body+"\n```\nLet me know if you need changes.", body),
		Entry("opening fence only",
			"```yaml\n"+body+"\n", body),
		Entry("closing fence only",
			body+"\n```\ntrailing", body),
		Entry("untagged opening fence is treated as closing",
			"```\n"+body+"\n```", ""),
		Entry("other language tags are not openings",
			"```yml\n"+body+"\n```", ""),
		Entry("only the first fenced block survives",
			"```yaml\na: 1\n```\n```yaml\nb: 2\n```", "a: 1"),
		Entry("fences with nothing inside",
			"```yaml\n```", ""),
	)
})
