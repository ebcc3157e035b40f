package dlp

import (
	"github.com/trustfabric/leakguard/pkg/dlp/types"
)

// Collaborator ports live in the types package so detector subpackages can
// depend on them without an import cycle; they are re-exported here as the
// package's public surface.

type PIISpan = types.PIISpan
type PIIEngine = types.PIIEngine
type SensitiveHashRegistry = types.SensitiveHashRegistry
type DesensitizationRule = types.DesensitizationRule
type DesensitizationRuleProvider = types.DesensitizationRuleProvider
type Anonymizer = types.Anonymizer
type ScanEvent = types.ScanEvent
type AuditLog = types.AuditLog
type PolicyProvider = types.PolicyProvider
