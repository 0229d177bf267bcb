// Package ir provides the shared value types for graft.
//
// This package contains type definitions and canonical digests only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// ir the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Namespaces are a closed set (see Namespace)
//   - Capability digests use canonical JSON with sorted keys and NFC strings
//   - All JSON and YAML tags use snake_case
package ir
