package capability

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/graft/internal/ir"
)

// Snapshot lists every installed capability ordered by namespace, level and
// name. Kind reports the Go type of the implementation as given to Install.
func (t *Table) Snapshot() []ir.CapabilityInfo {
	t.mu.RLock()
	infos := make([]ir.CapabilityInfo, 0, len(t.entries))
	for k, e := range t.entries {
		infos = append(infos, ir.CapabilityInfo{
			Namespace: k.ns,
			Level:     k.level.String(),
			Name:      k.name,
			Mode:      e.mode,
			Kind:      fmt.Sprintf("%T", e.impl),
		})
	}
	t.mu.RUnlock()

	slices.SortFunc(infos, func(a, b ir.CapabilityInfo) int {
		return cmp.Or(
			cmp.Compare(a.Namespace, b.Namespace),
			cmp.Compare(a.Level, b.Level),
			cmp.Compare(a.Name, b.Name),
		)
	})
	return infos
}

// Digest returns the canonical digest of Snapshot.
func (t *Table) Digest() (string, error) {
	return ir.CapabilitiesDigest(t.Snapshot())
}
