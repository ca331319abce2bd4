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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/serializer"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"
)

var (
	scheme  = runtime.NewScheme()
	decoder runtime.Decoder
)

func init() {
	utilruntime.Must(appsv1.AddToScheme(scheme))
	utilruntime.Must(corev1.AddToScheme(scheme))
	utilruntime.Must(autoscalingv2.AddToScheme(scheme))
	utilruntime.Must(networkingv1.AddToScheme(scheme))
	decoder = serializer.NewCodecFactory(scheme, serializer.EnableStrict).UniversalDeserializer()
}

// ErrEmpty is reported when a manifest holds no objects at all.
var ErrEmpty = errors.New("no Kubernetes objects found")

// Resource identifies one object of a manifest.
type Resource struct {
	Index      int
	APIVersion string
	Kind       string
	Name       string
	Namespace  string
}

func (r Resource) String() string {
	if r.Namespace != "" {
		return fmt.Sprintf("%s/%s (%s)", r.Kind, r.Name, r.Namespace)
	}
	return r.Kind + "/" + r.Name
}

// DocumentError is a problem with the document at Index, the 0-based
// position in the stream. Separators with nothing between them do not
// count as documents.
type DocumentError struct {
	Index int
	Err   error
}

func (e DocumentError) Error() string {
	return fmt.Sprintf("document %d: %v", e.Index, e.Err)
}

// ValidationError collects every problem found in a manifest.
type ValidationError struct {
	Problems []DocumentError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	return "invalid manifest: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Problems))
	for _, p := range e.Problems {
		errs = append(errs, p.Err)
	}
	return errs
}

// Validate checks that body is a stream of Kubernetes objects. Every
// document must carry apiVersion, kind and metadata.name. Objects of the
// apps/v1, v1, autoscaling/v2 and networking/v1 groups are also decoded
// strictly against their Go types, which rejects unknown or mistyped
// fields. Other kinds are accepted on shape alone.
func Validate(body string) ([]Resource, error) {
	reader := utilyaml.NewYAMLReader(bufio.NewReader(strings.NewReader(body)))

	var (
		resources []Resource
		problems  []DocumentError
	)
	for index := 0; ; index++ {
		doc, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			problems = append(problems, DocumentError{Index: index, Err: err})
			break
		}
		if blank(doc) {
			continue
		}
		res, err := validateDocument(doc)
		if err != nil {
			problems = append(problems, DocumentError{Index: index, Err: err})
			continue
		}
		res.Index = index
		resources = append(resources, res)
	}

	if len(resources) == 0 && len(problems) == 0 {
		problems = append(problems, DocumentError{Index: 0, Err: ErrEmpty})
	}
	if len(problems) > 0 {
		return resources, &ValidationError{Problems: problems}
	}
	return resources, nil
}

func validateDocument(doc []byte) (Resource, error) {
	data, err := yaml.YAMLToJSON(doc)
	if err != nil {
		return Resource{}, fmt.Errorf("not YAML: %w", err)
	}
	obj := &unstructured.Unstructured{}
	if err := obj.UnmarshalJSON(data); err != nil {
		return Resource{}, err
	}

	res := Resource{
		APIVersion: obj.GetAPIVersion(),
		Kind:       obj.GetKind(),
		Name:       obj.GetName(),
		Namespace:  obj.GetNamespace(),
	}
	switch {
	case res.APIVersion == "":
		return res, errors.New("apiVersion is required")
	case res.Name == "" && obj.GetGenerateName() == "":
		return res, fmt.Errorf("%s: metadata.name is required", res.Kind)
	}

	if scheme.Recognizes(obj.GroupVersionKind()) {
		if _, _, err := decoder.Decode(data, nil, nil); err != nil {
			return res, fmt.Errorf("%s %q: %w", res.Kind, res.Name, err)
		}
	}
	return res, nil
}

// blank reports whether doc holds nothing but whitespace, comments and
// document separators. The reader hands back a leading "---" together
// with the document that follows it.
func blank(doc []byte) bool {
	for _, line := range strings.Split(string(doc), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "---"); ok {
			line = strings.TrimSpace(rest)
		}
		if line != "" && !strings.HasPrefix(line, "#") {
			return false
		}
	}
	return true
}
