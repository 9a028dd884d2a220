package avatar

import "strings"

// Role classifies a driveable morph channel.
type Role int

const (
	// RoleMouth channels receive the full lip-sync influence.
	RoleMouth Role = iota
	// RoleSmile channels receive a scaled-down influence as an accent.
	RoleSmile
)

// MorphTarget is one driveable morph channel on a loaded mesh. Influence is
// mutated every frame by the animation layer and stays within [0,1].
type MorphTarget struct {
	MeshID    string
	Channel   string
	Role      Role
	Influence float64
}

// Channel names are matched after lowercasing and stripping separators, so
// mouthOpen, mouth_open and MouthOpen all resolve to the same capability.
var (
	mouthChannels = map[string]struct{}{
		"mouthopen": {},
		"jawopen":   {},
		"visemeaa":  {},
		"visemeo":   {},
	}
	smileChannels = map[string]struct{}{
		"smile":           {},
		"mouthsmile":      {},
		"mouthsmileleft":  {},
		"mouthsmileright": {},
	}
)

func normalizeChannel(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, "-", "")
	return name
}

// ProbeMorphTargets scans a model's meshes for channels the lip-sync engine
// knows how to drive. Channels outside the recognized sets are ignored; a
// model with no recognized channels yields an empty set, which downstream
// code treats as "no visible lip sync" rather than an error.
func ProbeMorphTargets(m *Model) []*MorphTarget {
	var targets []*MorphTarget
	for _, mesh := range m.Meshes {
		for _, ch := range mesh.MorphChannels {
			key := normalizeChannel(ch)
			if _, ok := mouthChannels[key]; ok {
				targets = append(targets, &MorphTarget{MeshID: mesh.ID, Channel: ch, Role: RoleMouth})
				continue
			}
			if _, ok := smileChannels[key]; ok {
				targets = append(targets, &MorphTarget{MeshID: mesh.ID, Channel: ch, Role: RoleSmile})
			}
		}
	}
	return targets
}
