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
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bearslyricattack/kubecheck/pkg/models"
)

var _ = Describe("Runner", func() {
	var runner *Runner

	BeforeEach(func() {
		runner = NewRunner()
	})

	Describe("single-value checks", func() {
		It("should fail an and-combined check when one predicate fails", func() {
			def := &models.CheckDefinition{
				ID:          "1.2.1",
				Text:        "Ensure that the --anonymous-auth argument is set to false",
				Audit:       "echo '--anonymous-auth=false --profiling=true'",
				Remediation: "Edit the API server manifest",
				Scored:      true,
				Tests: &models.Tests{
					BinOp: "and",
					TestItems: []models.TestItem{
						{Flag: "--anonymous-auth", Compare: &models.Compare{Op: OpEq, Value: "false"}},
						{Flag: "--profiling", Compare: &models.Compare{Op: OpEq, Value: "false"}},
					},
				},
			}

			result := runner.Run(def, ContextMaster)
			Expect(result.Passed).To(HaveValue(BeFalse()))
			Expect(result.TestResults).To(HaveLen(2))
			Expect(result.TestResults[0].Passed).To(BeTrue())
			Expect(result.TestResults[1].Passed).To(BeFalse())
			Expect(result.Remediation).To(Equal("Edit the API server manifest"))
		})

		It("should pass an or-combined check when one predicate passes", func() {
			def := &models.CheckDefinition{
				ID:    "1.2.2",
				Audit: "echo '--authorization-mode=Node,RBAC'",
				Tests: &models.Tests{
					BinOp: "or",
					TestItems: []models.TestItem{
						{Flag: "--authorization-mode", Compare: &models.Compare{Op: OpHas, Value: "RBAC"}},
						{Flag: "--authorization-mode", Compare: &models.Compare{Op: OpEq, Value: "AlwaysAllow"}},
					},
				},
			}

			result := runner.Run(def, ContextMaster)
			Expect(result.Passed).To(HaveValue(BeTrue()))
			Expect(result.Remediation).To(BeEmpty())
		})

		It("should evaluate set existence in both directions", func() {
			def := &models.CheckDefinition{
				ID:    "1.2.3",
				Audit: "echo '--secure-port=6443'",
				Tests: &models.Tests{
					TestItems: []models.TestItem{
						{Flag: "--secure-port", Set: boolPtr(true)},
						{Flag: "--insecure-port", Set: boolPtr(false)},
					},
				},
			}

			result := runner.Run(def, ContextMaster)
			Expect(result.Passed).To(HaveValue(BeTrue()))
			Expect(result.TestResults[0].Message).To(Equal("Flag --secure-port is set with value: 6443"))
			Expect(result.TestResults[1].Message).To(Equal("Flag --insecure-port is not set (as required)"))
		})

		It("should treat a flag without predicates as an existence check", func() {
			def := &models.CheckDefinition{
				ID:    "1.2.4",
				Audit: "echo '--profiling'",
				Tests: &models.Tests{
					TestItems: []models.TestItem{{Flag: "--profiling"}},
				},
			}

			result := runner.Run(def, ContextMaster)
			Expect(result.Passed).To(HaveValue(BeTrue()))
			Expect(result.TestResults[0].Value).To(Equal("true"))
		})

		It("should fail a comparison when the flag is missing", func() {
			def := &models.CheckDefinition{
				ID:    "1.2.5",
				Audit: "echo '--secure-port=6443'",
				Tests: &models.Tests{
					TestItems: []models.TestItem{
						{Flag: "--audit-log-maxage", Compare: &models.Compare{Op: OpGte, Value: 30}},
					},
				},
			}

			result := runner.Run(def, ContextMaster)
			Expect(result.Passed).To(HaveValue(BeFalse()))
			Expect(result.TestResults[0].Message).To(Equal("Flag --audit-log-maxage not found for comparison"))
		})

		It("should pass a check that declares an audit but no tests", func() {
			def := &models.CheckDefinition{ID: "1.2.6", Audit: "echo ok"}

			result := runner.Run(def, ContextMaster)
			Expect(result.Passed).To(HaveValue(BeTrue()))
			Expect(result.TestResults).To(BeEmpty())
		})
	})

	Describe("manual checks", func() {
		It("should leave the verdict unknown when no probe is declared", func() {
			def := &models.CheckDefinition{
				ID:          "3.1.1",
				Text:        "Client certificate authentication should not be used for users (Manual)",
				Remediation: "Implement an alternative authentication mechanism",
			}

			result := runner.Run(def, ContextMaster)
			Expect(result.Passed).To(BeNil())
			Expect(result.Type).To(Equal(models.TypeManual))
			Expect(result.TestResults).To(BeEmpty())
			Expect(result.Remediation).To(Equal("Implement an alternative authentication mechanism"))
		})

		It("should reclassify an automated check whose text says manual", func() {
			def := &models.CheckDefinition{
				ID:    "3.1.2",
				Text:  "Review something by hand (Manual)",
				Audit: "echo '--flag=1'",
				Tests: &models.Tests{
					TestItems: []models.TestItem{{Flag: "--flag", Set: boolPtr(true)}},
				},
			}

			result := runner.Run(def, ContextMaster)
			Expect(result.Type).To(Equal(models.TypeManual))
			Expect(result.Passed).To(HaveValue(BeTrue()))
		})

		It("should keep a declared manual type even with a plain text", func() {
			def := &models.CheckDefinition{
				ID:    "3.1.3",
				Text:  "Plain description",
				Type:  models.TypeManual,
				Audit: "echo ok",
			}

			result := runner.Run(def, ContextMaster)
			Expect(result.Type).To(Equal(models.TypeManual))
		})
	})

	Describe("dual evidence sources", func() {
		const kubeletConfigProbe = "printf 'authentication:\\n  anonymous:\\n    enabled: false\\n'"

		It("should fall back to the config document when the process flag is absent", func() {
			def := &models.CheckDefinition{
				ID:          "4.2.1",
				Audit:       "true",
				AuditConfig: kubeletConfigProbe,
				Tests: &models.Tests{
					TestItems: []models.TestItem{
						{
							Flag:    "--anonymous-auth",
							Path:    "{.authentication.anonymous.enabled}",
							Compare: &models.Compare{Op: OpEq, Value: false},
						},
					},
				},
			}

			result := runner.Run(def, ContextNode)
			Expect(result.Passed).To(HaveValue(BeTrue()))
			Expect(result.HasDualAudit).To(BeTrue())
			Expect(result.TestResults[0].Source).To(Equal(models.SourceConfig))
			Expect(result.TestResults[0].Value).To(Equal("false"))
		})

		It("should prefer live process output over the config document", func() {
			def := &models.CheckDefinition{
				ID:          "4.2.2",
				Audit:       "echo 'kubelet --anonymous-auth=true'",
				AuditConfig: kubeletConfigProbe,
				Tests: &models.Tests{
					TestItems: []models.TestItem{
						{
							Flag:    "--anonymous-auth",
							Path:    "{.authentication.anonymous.enabled}",
							Compare: &models.Compare{Op: OpEq, Value: false},
						},
					},
				},
			}

			result := runner.Run(def, ContextNode)
			Expect(result.Passed).To(HaveValue(BeFalse()))
			Expect(result.TestResults[0].Source).To(Equal(models.SourceProcess))
			Expect(result.TestResults[0].Value).To(Equal("true"))
		})

		It("should report when neither source holds the value", func() {
			def := &models.CheckDefinition{
				ID:          "4.2.3",
				Audit:       "true",
				AuditConfig: "echo 'readOnlyPort: 0'",
				Tests: &models.Tests{
					TestItems: []models.TestItem{
						{
							Flag:    "--event-qps",
							Path:    "{.eventRecordQPS}",
							Compare: &models.Compare{Op: OpGte, Value: 0},
						},
					},
				},
			}

			result := runner.Run(def, ContextNode)
			Expect(result.Passed).To(HaveValue(BeFalse()))
			Expect(result.TestResults[0].Found).To(BeFalse())
			Expect(result.TestResults[0].Value).To(Equal("Neither flag --event-qps nor config path {.eventRecordQPS} found"))
		})
	})

	Describe("multiple values", func() {
		It("should evaluate every line independently", func() {
			def := &models.CheckDefinition{
				ID:                "5.7.4",
				Audit:             "printf 'pod1 runAsRoot: no\\npod2 runAsRoot: no\\n'",
				UseMultipleValues: true,
				Tests: &models.Tests{
					TestItems: []models.TestItem{
						{Flag: "runAsRoot", Compare: &models.Compare{Op: OpEq, Value: false}},
					},
				},
			}

			result := runner.Run(def, ContextPolicies)
			Expect(result.Passed).To(HaveValue(BeTrue()))
			Expect(result.MultipleValues).To(BeTrue())
			Expect(result.LinesProcessed).To(Equal(2))
			Expect(result.TestResults).To(HaveLen(2))
			Expect(result.TestResults[0].LineNumber).To(Equal(1))
			Expect(result.TestResults[1].LineNumber).To(Equal(2))
		})

		It("should fail when any line fails under the default aggregation", func() {
			def := &models.CheckDefinition{
				ID:                "5.7.5",
				Audit:             "printf 'pod1 runAsRoot: no\\npod2 runAsRoot: yes\\n'",
				UseMultipleValues: true,
				Tests: &models.Tests{
					TestItems: []models.TestItem{
						{Flag: "runAsRoot", Compare: &models.Compare{Op: OpEq, Value: false}},
					},
				},
			}

			result := runner.Run(def, ContextPolicies)
			Expect(result.Passed).To(HaveValue(BeFalse()))
		})

		It("should fail with no output lines", func() {
			def := &models.CheckDefinition{
				ID:                "5.7.6",
				Audit:             "true",
				UseMultipleValues: true,
				Remediation:       "Create at least one policy",
				Tests: &models.Tests{
					TestItems: []models.TestItem{{Flag: "is_compliant", Set: boolPtr(true)}},
				},
			}

			result := runner.Run(def, ContextPolicies)
			Expect(result.Passed).To(HaveValue(BeFalse()))
			Expect(result.LinesProcessed).To(BeZero())
			Expect(result.TestResults).To(BeEmpty())
			Expect(result.Remediation).To(Equal("Create at least one policy"))
		})

		It("should require every compliance row to pass under all_compliant", func() {
			def := &models.CheckDefinition{
				ID:                "5.2.2",
				Audit:             "printf 'ns: a, is_compliant: true\\nns: b, is_compliant: false\\n'",
				UseMultipleValues: true,
				Aggregation:       models.AggregationAllCompliant,
				Tests: &models.Tests{
					TestItems: []models.TestItem{
						{Flag: "is_compliant", Compare: &models.Compare{Op: OpEq, Value: true}},
					},
				},
			}

			result := runner.Run(def, ContextPolicies)
			Expect(result.Passed).To(HaveValue(BeFalse()))

			def.Audit = "printf 'ns: a, is_compliant: true\\nns: b, is_compliant: true\\n'"
			Expect(runner.Run(def, ContextPolicies).Passed).To(HaveValue(BeTrue()))
		})

		It("should fail all_compliant when no compliance rows are present", func() {
			def := &models.CheckDefinition{
				ID:                "5.2.9",
				Audit:             "echo 'nothing relevant'",
				UseMultipleValues: true,
				Aggregation:       models.AggregationAllCompliant,
				Tests: &models.Tests{
					TestItems: []models.TestItem{
						{Flag: "other_flag", Compare: &models.Compare{Op: OpEq, Value: true}},
					},
				},
			}

			Expect(runner.Run(def, ContextPolicies).Passed).To(HaveValue(BeFalse()))
		})

		It("should evaluate roles and cluster roles separately under role_split", func() {
			def := &models.CheckDefinition{
				ID:                "5.1.3",
				Audit:             "printf 'role: r1, role_is_compliant: true\\nclusterrole: c1, clusterrole_is_compliant: true\\n'",
				UseMultipleValues: true,
				Aggregation:       models.AggregationRoleSplit,
				Tests: &models.Tests{
					TestItems: []models.TestItem{
						{Flag: "role_is_compliant", Compare: &models.Compare{Op: OpEq, Value: true}},
						{Flag: "clusterrole_is_compliant", Compare: &models.Compare{Op: OpEq, Value: true}},
					},
				},
			}

			result := runner.Run(def, ContextPolicies)
			Expect(result.Passed).To(HaveValue(BeTrue()))

			def.Audit = "printf 'role: r1, role_is_compliant: true\\nclusterrole: c1, clusterrole_is_compliant: false\\n'"
			Expect(runner.Run(def, ContextPolicies).Passed).To(HaveValue(BeFalse()))
		})

		It("should truncate long line content in results", func() {
			long := strings.Repeat("x", 150)
			def := &models.CheckDefinition{
				ID:                "5.7.7",
				Audit:             "echo 'flag: yes " + long + "'",
				UseMultipleValues: true,
				Tests: &models.Tests{
					TestItems: []models.TestItem{{Flag: "flag", Set: boolPtr(true)}},
				},
			}

			result := runner.Run(def, ContextPolicies)
			Expect(result.TestResults[0].LineContent).To(HaveLen(maxLineContent + 3))
			Expect(result.TestResults[0].LineContent).To(HaveSuffix("..."))
		})
	})

	Describe("result stability", func() {
		It("should produce the same verdict and trail on repeated evaluation", func() {
			def := &models.CheckDefinition{
				ID:    "1.4.1",
				Audit: "echo '--profiling=false'",
				Tests: &models.Tests{
					TestItems: []models.TestItem{
						{Flag: "--profiling", Compare: &models.Compare{Op: OpEq, Value: "false"}},
					},
				},
			}

			first := runner.Run(def, ContextMaster)
			second := runner.Run(def, ContextMaster)
			Expect(second.Passed).To(Equal(first.Passed))
			Expect(second.TestResults).To(Equal(first.TestResults))
		})
	})
})
