// Copyright 2025 Kubecheck Authors
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

package check

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LookupConfigPath", func() {
	const kubeletYAML = `kind: KubeletConfiguration
authentication:
  anonymous:
    enabled: false
  webhook:
    enabled: true
readOnlyPort: 0
`

	It("should walk a nested path through a YAML document", func() {
		found, value := LookupConfigPath(kubeletYAML, "{.authentication.anonymous.enabled}")
		Expect(found).To(BeTrue())
		Expect(value).To(Equal("false"))
	})

	It("should resolve a top-level key", func() {
		found, value := LookupConfigPath(kubeletYAML, "{.readOnlyPort}")
		Expect(found).To(BeTrue())
		Expect(value).To(Equal("0"))
	})

	It("should accept a path without braces", func() {
		found, value := LookupConfigPath(kubeletYAML, "authentication.webhook.enabled")
		Expect(found).To(BeTrue())
		Expect(value).To(Equal("true"))
	})

	It("should walk a JSON document", func() {
		doc := `{"authentication": {"x509": {"clientCAFile": "/etc/kubernetes/pki/ca.crt"}}}`
		found, value := LookupConfigPath(doc, "{.authentication.x509.clientCAFile}")
		Expect(found).To(BeTrue())
		Expect(value).To(Equal("/etc/kubernetes/pki/ca.crt"))
	})

	It("should report a missing segment", func() {
		found, value := LookupConfigPath(kubeletYAML, "{.authentication.oidc.enabled}")
		Expect(found).To(BeFalse())
		Expect(value).To(Equal("Path not found: oidc"))
	})

	It("should report traversal through a scalar", func() {
		found, value := LookupConfigPath(kubeletYAML, "{.readOnlyPort.nested}")
		Expect(found).To(BeFalse())
		Expect(value).To(Equal("Path not found: nested"))
	})

	It("should report empty output", func() {
		found, value := LookupConfigPath("   ", "{.readOnlyPort}")
		Expect(found).To(BeFalse())
		Expect(value).To(Equal("Empty config output"))
	})

	It("should report an empty path", func() {
		found, value := LookupConfigPath(kubeletYAML, "{}")
		Expect(found).To(BeFalse())
		Expect(value).To(Equal("Empty path"))
	})

	It("should report an unparsable document", func() {
		found, value := LookupConfigPath("{not json", "{.key}")
		Expect(found).To(BeFalse())
		Expect(value).To(HavePrefix("JSON parse error"))
	})
})
