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
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/bearslyricattack/kubecheck/pkg/logger"
	"github.com/sirupsen/logrus"
	yamlv3 "gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	sigsyaml "sigs.k8s.io/yaml"
)

// candidateSet describes where one component's configuration may live
// on disk and how to read it. The first path that exists and parses
// wins; later candidates are never consulted.
type candidateSet struct {
	component string
	prefix    string
	manifest  bool
	paths     []string
}

// Extractor reads component configuration from well-known file
// locations and exposes it as a flat flag-to-value mapping. Results are
// cached per component family for the process lifetime; the cache is
// safe for concurrent first access.
type Extractor struct {
	mu    sync.Mutex
	cache map[ExecContext]map[string]string

	etcd              candidateSet
	apiServer         candidateSet
	controllerManager candidateSet
	scheduler         candidateSet
	kubelet           candidateSet
	proxy             candidateSet
}

// NewExtractor returns an extractor with the standard candidate paths.
func NewExtractor() *Extractor {
	return &Extractor{
		cache: make(map[ExecContext]map[string]string),
		etcd: candidateSet{
			component: "etcd",
			manifest:  true,
			paths: []string{
				"/etc/kubernetes/manifests/etcd.yaml",
				"/etc/kubernetes/manifests/etcd.yml",
				"/etc/kubernetes/manifests/etcd.manifest",
				"/var/lib/rancher/rke2/agent/pod-manifests/etcd.yaml",
				"/var/lib/rancher/k3s/server/db/etcd/config",
			},
		},
		apiServer: candidateSet{
			component: "kube-apiserver",
			prefix:    "apiserver",
			manifest:  true,
			paths: []string{
				"/etc/kubernetes/manifests/kube-apiserver.yaml",
				"/etc/kubernetes/manifests/kube-apiserver.yml",
				"/etc/kubernetes/manifests/kube-apiserver.manifest",
			},
		},
		controllerManager: candidateSet{
			component: "kube-controller-manager",
			prefix:    "controller-manager",
			manifest:  true,
			paths: []string{
				"/etc/kubernetes/manifests/kube-controller-manager.yaml",
				"/etc/kubernetes/manifests/kube-controller-manager.yml",
			},
		},
		scheduler: candidateSet{
			component: "kube-scheduler",
			prefix:    "scheduler",
			manifest:  true,
			paths: []string{
				"/etc/kubernetes/manifests/kube-scheduler.yaml",
				"/etc/kubernetes/manifests/kube-scheduler.yml",
			},
		},
		kubelet: candidateSet{
			component: "kubelet",
			prefix:    "kubelet",
			paths: []string{
				"/var/lib/kubelet/config.yaml",
				"/etc/kubernetes/kubelet/kubelet-config.yaml",
				"/etc/kubernetes/kubelet.yaml",
			},
		},
		proxy: candidateSet{
			component: "kube-proxy",
			prefix:    "proxy",
			paths: []string{
				"/var/lib/kube-proxy/config.conf",
				"/etc/kubernetes/kube-proxy.yaml",
				"/var/lib/kube-proxy/kubeconfig.conf",
			},
		},
	}
}

// ComponentConfig returns the flat configuration mapping for a
// component family. Repeated calls for the same family hit the cache.
// Missing or unparsable files are skipped; if nothing can be read, the
// mapping is empty, never an error.
func (e *Extractor) ComponentConfig(execCtx ExecContext) map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cached, ok := e.cache[execCtx]; ok {
		return cached
	}

	var cfg map[string]string
	switch execCtx {
	case ContextEtcd:
		cfg = loadFromPaths(e.etcd)
	case ContextControlPlane:
		cfg = loadFromPaths(e.apiServer)
	case ContextMaster:
		cfg = make(map[string]string)
		for _, set := range []candidateSet{e.apiServer, e.controllerManager, e.scheduler} {
			for k, v := range loadFromPaths(set) {
				cfg[k] = v
			}
		}
	case ContextNode:
		cfg = make(map[string]string)
		for _, set := range []candidateSet{e.kubelet, e.proxy} {
			for k, v := range loadFromPaths(set) {
				cfg[k] = v
			}
		}
	case ContextPolicies:
		// Policy evidence comes from kubectl probes, not files.
		cfg = map[string]string{}
	default:
		logger.L.WithField("context", string(execCtx)).Warn("Unknown component family for config extraction")
		cfg = map[string]string{}
	}

	e.cache[execCtx] = cfg
	return cfg
}

// loadFromPaths tries a component's candidate paths in order and
// returns the mapping from the first one that exists and parses.
func loadFromPaths(set candidateSet) map[string]string {
	for _, path := range set.paths {
		data, err := os.ReadFile(path)
		if err != nil || len(data) == 0 {
			continue
		}

		var extracted map[string]string
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			if set.manifest {
				extracted, err = extractManifestArgs(data, set.component)
			} else {
				extracted, err = parseFlatYAML(data)
			}
			if err != nil {
				logger.L.WithFields(logrus.Fields{
					"path": path,
				}).WithError(err).Debug("Failed to parse candidate config file, trying next")
				continue
			}
		} else {
			extracted = parseKeyValueFile(string(data))
		}

		result := make(map[string]string, len(extracted))
		for key, value := range extracted {
			if set.prefix != "" {
				key = set.prefix + "_" + key
			}
			result[key] = value
		}

		logger.L.WithFields(logrus.Fields{
			"component": set.component,
			"path":      path,
		}).Debug("Read component config from file")
		return result
	}
	return map[string]string{}
}

// extractManifestArgs decodes a static pod manifest and pulls the
// --flag=value tokens and environment variables out of the container
// whose name contains the component name. Environment entries are keyed
// env_NAME to keep them apart from command-line flags.
func extractManifestArgs(data []byte, component string) (map[string]string, error) {
	var pod corev1.Pod
	if err := sigsyaml.Unmarshal(data, &pod); err != nil {
		return nil, fmt.Errorf("failed to decode pod manifest: %w", err)
	}

	cfg := make(map[string]string)
	for _, container := range pod.Spec.Containers {
		if !strings.Contains(container.Name, component) {
			continue
		}

		args := append(append([]string{}, container.Command...), container.Args...)
		for _, arg := range args {
			if !strings.HasPrefix(arg, "--") || !strings.Contains(arg, "=") {
				continue
			}
			parts := strings.SplitN(arg, "=", 2)
			cfg[parts[0]] = parts[1]
		}

		for _, envVar := range container.Env {
			cfg["env_"+envVar.Name] = envVar.Value
		}
		break
	}
	return cfg, nil
}

// parseFlatYAML reads a non-manifest YAML document (kubelet or proxy
// config) as a flat mapping, coercing every top-level value to text.
func parseFlatYAML(data []byte) (map[string]string, error) {
	var doc map[string]interface{}
	if err := yamlv3.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode config document: %w", err)
	}

	cfg := make(map[string]string, len(doc))
	for k, v := range doc {
		cfg[k] = fmt.Sprintf("%v", v)
	}
	return cfg, nil
}

// parseKeyValueFile reads line-oriented key=value text, skipping blank
// lines and #-comments and stripping surrounding quotes from values.
func parseKeyValueFile(content string) map[string]string {
	cfg := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "=") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		cfg[key] = value
	}
	return cfg
}
