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

var _ = Describe("Substitute", func() {
	It("should replace tokens registered for the context", func() {
		cmd := Substitute("stat -c permissions=%a $etcdconf", ContextEtcd)
		Expect(cmd).To(Equal("stat -c permissions=%a /etc/kubernetes/manifests/etcd.yaml"))
	})

	It("should replace multiple tokens in one command", func() {
		cmd := Substitute("ps -ef | grep $etcdbin; ls $etcddatadir", ContextEtcd)
		Expect(cmd).To(Equal("ps -ef | grep etcd; ls /var/lib/etcd"))
	})

	It("should leave tokens of other contexts untouched", func() {
		cmd := Substitute("cat $apiserverconf", ContextEtcd)
		Expect(cmd).To(Equal("cat $apiserverconf"))
	})

	It("should replace the full component set for the master context", func() {
		cmd := Substitute("$apiserverbin $controllermanagerbin $schedulerbin $etcdbin", ContextMaster)
		Expect(cmd).To(Equal("kube-apiserver kube-controller-manager kube-scheduler etcd"))
	})

	It("should replace kubelet and proxy tokens for the node context", func() {
		cmd := Substitute("cat $kubeletconf $proxykubeconfig", ContextNode)
		Expect(cmd).To(Equal("cat /var/lib/kubelet/config.yaml /var/lib/kube-proxy/kubeconfig.conf"))
	})

	It("should leave policy commands unchanged", func() {
		cmd := "kubectl get pods --all-namespaces -o json"
		Expect(Substitute(cmd, ContextPolicies)).To(Equal(cmd))
	})

	It("should return the command unchanged for an unknown context", func() {
		cmd := "cat $etcdconf"
		Expect(Substitute(cmd, ExecContext("unknown"))).To(Equal(cmd))
	})
})

var _ = Describe("SubstituteAll", func() {
	It("should replace tokens from every family", func() {
		cmd := SubstituteAll("chmod 600 $kubeletkubeconfig && chown root:root $etcdconf")
		Expect(cmd).To(Equal("chmod 600 /etc/kubernetes/kubelet.conf && chown root:root /etc/kubernetes/manifests/etcd.yaml"))
	})

	It("should leave unknown tokens untouched", func() {
		Expect(SubstituteAll("echo $unknown")).To(Equal("echo $unknown"))
	})
})

var _ = Describe("ParseContext", func() {
	It("should accept every known family", func() {
		for _, ctx := range Contexts {
			parsed, err := ParseContext(string(ctx))
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(ctx))
		}
	})

	It("should reject an unknown family", func() {
		_, err := ParseContext("worker")
		Expect(err).To(HaveOccurred())
	})
})
