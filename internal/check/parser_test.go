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

var _ = Describe("ParseOutput", func() {
	Describe("standard flag scanning", func() {
		It("should extract a flag=value token from process output", func() {
			output := "root 1234 kube-apiserver --advertise-address=10.0.0.1 --anonymous-auth=false --audit-log-maxage=30"
			found, value := ParseOutput(output, "--anonymous-auth", "", ContextMaster)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("false"))
		})

		It("should return true for a bare boolean flag", func() {
			found, value := ParseOutput("kube-scheduler --profiling", "--profiling", "", ContextMaster)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("true"))
		})

		It("should only consider lines containing the flag", func() {
			output := "kubelet --read-only-port=0\nkube-proxy --bind-address=0.0.0.0"
			found, value := ParseOutput(output, "--read-only-port", "", ContextNode)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("0"))
		})

		It("should fall back to the environment variable on the same line", func() {
			output := "etcd running without --client-cert-auth, ETCD_CLIENT_CERT_AUTH=true"
			found, value := ParseOutput(output, "--client-cert-auth", "ETCD_CLIENT_CERT_AUTH", ContextEtcd)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("true"))
		})

		It("should report a missing flag", func() {
			found, value := ParseOutput("kube-apiserver --secure-port=6443", "--anonymous-auth", "", ContextMaster)
			Expect(found).To(BeFalse())
			Expect(value).To(Equal("Flag not found"))
		})

		It("should report empty output", func() {
			found, value := ParseOutput("", "--anonymous-auth", "", ContextMaster)
			Expect(found).To(BeFalse())
			Expect(value).To(Equal("No output from audit command"))
		})
	})

	Describe("permission output", func() {
		It("should extract the mode from stat Access output", func() {
			output := "  File: /etc/kubernetes/manifests/etcd.yaml\nAccess: (0644/-rw-r--r--)  Uid: (    0/    root)"
			found, value := ParseOutput(output, "permissions", "", ContextEtcd)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("0644"))
		})

		It("should extract the mode from permissions= output", func() {
			found, value := ParseOutput("permissions=600 /var/lib/etcd", "permissions", "", ContextEtcd)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("600"))
		})
	})

	Describe("ownership output", func() {
		It("should return the raw value for the ownership flag", func() {
			found, value := ParseOutput("ownership=etcd:etcd /var/lib/etcd", "ownership", "", ContextEtcd)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("etcd:etcd"))
		})

		It("should compare equality for the root:root flag", func() {
			found, value := ParseOutput("ownership=etcd:etcd /var/lib/etcd", "root:root", "", ContextEtcd)
			Expect(found).To(BeFalse())
			Expect(value).To(Equal("etcd:etcd"))
		})

		It("should check containment for any other flag", func() {
			found, value := ParseOutput("ownership=root:root /etc/kubernetes/pki", "root", "", ContextMaster)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("root:root"))
		})

		It("should combine stat Uid and Gid output", func() {
			output := "Uid: (    0/    root)   Gid: (    0/    root)"
			found, value := ParseOutput(output, "ownership", "", ContextMaster)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("root:root"))
		})
	})

	Describe("error output", func() {
		It("should report stat errors as not found", func() {
			output := "error: No such file or directory"
			found, value := ParseOutput(output, "permissions", "", ContextNode)
			Expect(found).To(BeFalse())
			Expect(value).To(HavePrefix("Error:"))
		})
	})

	Describe("literal flags", func() {
		It("should match the File not found literal", func() {
			found, value := ParseOutput("File not found", "File not found", "", ContextNode)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("File not found"))
		})

		It("should match the root:root literal without an ownership marker", func() {
			found, value := ParseOutput("root:root\n", "root:root", "", ContextMaster)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("root:root"))
		})
	})

	Describe("policy output", func() {
		It("should extract a key: value line", func() {
			output := "minimize_wildcards: no\nother: yes"
			found, value := ParseOutput(output, "minimize_wildcards", "", ContextPolicies)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("no"))
		})

		It("should extract a flag: value token from a comma-separated line", func() {
			output := "namespace: default, pod: web-1, is_compliant: true"
			found, value := ParseOutput(output, "is_compliant", "", ContextPolicies)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("true"))
		})

		It("should extract from a double-asterisk marker line", func() {
			output := "** role: admin-binding wildcard_usage: yes"
			found, value := ParseOutput(output, "wildcard_usage", "", ContextPolicies)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("yes"))
		})

		It("should extract from a triple-asterisk marker line", func() {
			output := "*** pod_security namespace: kube-system privileged_allowed: yes"
			found, value := ParseOutput(output, "privileged_allowed", "", ContextPolicies)
			Expect(found).To(BeTrue())
			Expect(value).To(Equal("yes"))
		})

		It("should report a missing policy flag", func() {
			found, value := ParseOutput("no such marker here", "is_compliant", "", ContextPolicies)
			Expect(found).To(BeFalse())
			Expect(value).To(Equal("Policy flag not found"))
		})
	})
})

var _ = Describe("classifyOutput", func() {
	It("should classify permission markers first", func() {
		Expect(classifyOutput("permissions=644 ownership=root:root", "ownership")).To(Equal(KindPermissions))
	})

	It("should classify ownership markers", func() {
		Expect(classifyOutput("ownership=root:root", "ownership")).To(Equal(KindOwnership))
	})

	It("should classify error markers case-insensitively", func() {
		Expect(classifyOutput("Error: cannot stat file", "permissions")).To(Equal(KindError))
		Expect(classifyOutput("cat: /etc/foo: no such file", "permissions")).To(Equal(KindError))
	})

	It("should fall through to the generic flag scan", func() {
		Expect(classifyOutput("kubelet --read-only-port=0", "--read-only-port")).To(Equal(KindFlags))
	})
})
