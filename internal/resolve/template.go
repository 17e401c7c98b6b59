package resolve

import (
	"strconv"
	"strings"

	"github.com/pxdesk/pxdesk/internal/proxmox"
)

// templateRule is one step of the template resolution cascade.
type templateRule struct {
	name  string
	match func(ref string, containers []proxmox.Container) (int, bool)
}

// templateRules in precedence order: an exact numeric identifier beats
// an exact name, which beats a substring match.
var templateRules = []templateRule{
	{name: "numeric-id", match: byNumericID},
	{name: "exact-name", match: byExactName},
	{name: "substring-name", match: bySubstringName},
}

// byNumericID matches when the reference is a number equal to a
// container identifier. Name lookup is skipped entirely.
func byNumericID(ref string, containers []proxmox.Container) (int, bool) {
	id, err := strconv.Atoi(ref)
	if err != nil {
		return 0, false
	}
	for _, c := range containers {
		if c.VMID == id {
			return c.VMID, true
		}
	}
	return 0, false
}

// byExactName matches a case-insensitive exact container name.
func byExactName(ref string, containers []proxmox.Container) (int, bool) {
	for _, c := range containers {
		if c.Name != "" && strings.EqualFold(c.Name, ref) {
			return c.VMID, true
		}
	}
	return 0, false
}

// bySubstringName matches when the reference appears anywhere in a
// container name, case-insensitively.
func bySubstringName(ref string, containers []proxmox.Container) (int, bool) {
	lowRef := strings.ToLower(ref)
	for _, c := range containers {
		if c.Name != "" && strings.Contains(strings.ToLower(c.Name), lowRef) {
			return c.VMID, true
		}
	}
	return 0, false
}
