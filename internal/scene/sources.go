package scene

import "avatarhost/internal/assets"

// Canonical asset names used in manifests and load reports.
const (
	AssetAvatar      = "avatar"
	AssetTalkingClip = "talking-clip"
	AssetIdleClip    = "idle-clip"
	AssetPlatform    = "platform-prop"
)

// Sources holds the configured candidate URL lists for every scene asset.
type Sources struct {
	AvatarModelURLs []string
	TalkingClipURLs []string
	IdleClipURLs    []string
	PlatformURLs    []string
}

// Manifest builds a load manifest. Assets without configured candidates
// are omitted; the platform prop is included only when requested.
func (s Sources) Manifest(showPlatform bool) Manifest {
	m := Manifest{
		Avatar: assets.Request{
			Name:          AssetAvatar,
			Kind:          assets.KindModel,
			CandidateURLs: s.AvatarModelURLs,
		},
	}
	if len(s.TalkingClipURLs) > 0 {
		m.TalkingClip = &assets.Request{
			Name:          AssetTalkingClip,
			Kind:          assets.KindAnimation,
			CandidateURLs: s.TalkingClipURLs,
		}
	}
	if len(s.IdleClipURLs) > 0 {
		m.IdleClip = &assets.Request{
			Name:          AssetIdleClip,
			Kind:          assets.KindAnimation,
			CandidateURLs: s.IdleClipURLs,
		}
	}
	if showPlatform && len(s.PlatformURLs) > 0 {
		m.Prop = &assets.Request{
			Name:          AssetPlatform,
			Kind:          assets.KindModel,
			CandidateURLs: s.PlatformURLs,
		}
	}
	return m
}
