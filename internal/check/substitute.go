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

import "strings"

// substitutionTable maps the symbolic tokens used in benchmark audit and
// remediation commands to concrete paths and binary names. The same
// table backs probe substitution and auto-remediation substitution.
var substitutionTable = map[string]string{
	"$apiserverconf":               "/etc/kubernetes/manifests/kube-apiserver.yaml",
	"$controllermanagerconf":       "/etc/kubernetes/manifests/kube-controller-manager.yaml",
	"$schedulerconf":               "/etc/kubernetes/manifests/kube-scheduler.yaml",
	"$etcdconf":                    "/etc/kubernetes/manifests/etcd.yaml",
	"$apiserverbin":                "kube-apiserver",
	"$controllermanagerbin":        "kube-controller-manager",
	"$schedulerbin":                "kube-scheduler",
	"$etcdbin":                     "etcd",
	"$kubeletbin":                  "kubelet",
	"$etcddatadir":                 "/var/lib/etcd",
	"$schedulerkubeconfig":         "/etc/kubernetes/scheduler.conf",
	"$controllermanagerkubeconfig": "/etc/kubernetes/controller-manager.conf",
	"$kubeletsvc":                  "/usr/lib/systemd/system/kubelet.service.d/10-kubeadm.conf",
	"$kubeletkubeconfig":           "/etc/kubernetes/kubelet.conf",
	"$kubeletconf":                 "/var/lib/kubelet/config.yaml",
	"$kubeletcafile":               "/etc/kubernetes/pki/ca.crt",
	"$proxybin":                    "kube-proxy",
	"$proxykubeconfig":             "/var/lib/kube-proxy/kubeconfig.conf",
	"$proxyconf":                   "/var/lib/kube-proxy/config.conf",
}

// contextTokens registers which tokens are substituted for each
// execution context. Tokens not registered for a context are left
// untouched in the command text.
var contextTokens = map[ExecContext][]string{
	ContextEtcd: {
		"$etcdconf", "$etcdbin", "$etcddatadir",
	},
	ContextControlPlane: {
		"$apiserverconf", "$apiserverbin",
	},
	ContextMaster: {
		"$apiserverconf", "$apiserverbin",
		"$controllermanagerconf", "$controllermanagerbin", "$controllermanagerkubeconfig",
		"$schedulerconf", "$schedulerbin", "$schedulerkubeconfig",
		"$etcdconf", "$etcdbin", "$etcddatadir",
	},
	ContextNode: {
		"$kubeletbin", "$kubeletsvc", "$kubeletkubeconfig", "$kubeletconf", "$kubeletcafile",
		"$proxybin", "$proxykubeconfig", "$proxyconf",
	},
	// Policy checks probe through kubectl and carry no path tokens.
	ContextPolicies: {},
}

// Substitute rewrites the symbolic tokens registered for ctx inside a
// command template. Replacement is literal text substitution; unknown
// contexts yield the command unchanged.
func Substitute(cmd string, ctx ExecContext) string {
	for _, token := range contextTokens[ctx] {
		cmd = strings.ReplaceAll(cmd, token, substitutionTable[token])
	}
	return cmd
}

// SubstituteAll rewrites every known token. Auto-remediation commands
// are not bound to a single component family, so they get the full
// table.
func SubstituteAll(cmd string) string {
	for token, value := range substitutionTable {
		cmd = strings.ReplaceAll(cmd, token, value)
	}
	return cmd
}
