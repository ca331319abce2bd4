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
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const deploymentYAML = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: flask-api
  labels:
    app: flask-api
spec:
  replicas: 3
  selector:
    matchLabels:
      app: flask-api
  template:
    metadata:
      labels:
        app: flask-api
    spec:
      containers:
        - name: flask-api
          image: python:3.12-slim
          ports:
            - containerPort: 5050`

const serviceYAML = `apiVersion: v1
kind: Service
metadata:
  name: flask-api
spec:
  selector:
    app: flask-api
  ports:
    - port: 80
      targetPort: 5050`

const hpaYAML = `apiVersion: autoscaling/v2
kind: HorizontalPodAutoscaler
metadata:
  name: flask-api
spec:
  scaleTargetRef:
    apiVersion: apps/v1
    kind: Deployment
    name: flask-api
  minReplicas: 1
  maxReplicas: 4
  metrics:
    - type: Resource
      resource:
        name: cpu
        target:
          type: Utilization
          averageUtilization: 60`

var _ = Describe("Validate", func() {
	It("accepts a multi-document manifest and lists its objects", func() {
		body := deploymentYAML + "\n---\n" + serviceYAML + "\n---\n" + hpaYAML
		resources, err := Validate(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(resources).To(HaveLen(3))
		Expect(resources[0].String()).To(Equal("Deployment/flask-api"))
		Expect(resources[1].Kind).To(Equal("Service"))
		Expect(resources[1].Index).To(Equal(1))
		Expect(resources[2].APIVersion).To(Equal("autoscaling/v2"))
	})

	It("skips empty and comment-only documents", func() {
		body := "---\n# generated\n---\n" + serviceYAML + "\n---\n"
		resources, err := Validate(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(resources).To(HaveLen(1))
	})

	It("accepts a manifest that opens with a separator and a comment block", func() {
		body := "---\n# Source: flask-api\n# generated for kind-dev\n---\n" + deploymentYAML + "\n--- # service\n" + serviceYAML
		resources, err := Validate(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(resources).To(HaveLen(2))
		Expect(resources[0].Kind).To(Equal("Deployment"))
		Expect(resources[1].Kind).To(Equal("Service"))
	})

	It("still rejects a document after a separator that is not an object", func() {
		_, err := Validate("---\njust text\n")
		Expect(err).To(HaveOccurred())
	})

	It("accepts kinds outside the built-in scheme on shape alone", func() {
		body := `apiVersion: monitoring.coreos.com/v1
kind: ServiceMonitor
metadata:
  name: flask-api
  namespace: apps
spec:
  anything: goes`
		resources, err := Validate(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(resources[0].String()).To(Equal("ServiceMonitor/flask-api (apps)"))
	})

	It("rejects the generation fallback text", func() {
		_, err := Validate("# Error generating YAML: connection refused")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, ErrEmpty)).To(BeTrue())
	})

	DescribeTable("rejects malformed documents",
		func(body, fragment string) {
			_, err := Validate(body)
			var verr *ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.Problems).NotTo(BeEmpty())
			Expect(err.Error()).To(ContainSubstring(fragment))
		},
		Entry("missing kind", "apiVersion: v1\nmetadata:\n  name: x", "Kind"),
		Entry("missing apiVersion", "kind: Service\nmetadata:\n  name: x", "apiVersion is required"),
		Entry("missing name", "apiVersion: v1\nkind: Service\nspec: {}", "metadata.name is required"),
		Entry("not a mapping", "- a\n- b", "document 0"),
		Entry("unknown field on a known kind",
			"apiVersion: apps/v1\nkind: Deployment\nmetadata:\n  name: x\nspec:\n  replicaz: 3", "replicaz"),
		Entry("mistyped field on a known kind",
			"apiVersion: apps/v1\nkind: Deployment\nmetadata:\n  name: x\nspec:\n  replicas: three", "Deployment"),
	)

	It("reports every bad document, not just the first", func() {
		body := "kind: Service\nmetadata:\n  name: a\n---\n" + serviceYAML + "\n---\napiVersion: v1\nkind: Service\n"
		resources, err := Validate(body)
		var verr *ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Problems).To(HaveLen(2))
		Expect(verr.Problems[0].Index).To(Equal(0))
		Expect(verr.Problems[1].Index).To(Equal(2))
		Expect(resources).To(HaveLen(1))
	})
})
