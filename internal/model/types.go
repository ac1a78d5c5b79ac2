package model

import "strings"

// Release is the subset of the GitHub release payload that taprelease uses.
type Release struct {
	ID      int64   `json:"id"`
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is the subset of the GitHub release asset payload that taprelease uses.
// URL is the API endpoint (needs auth + octet-stream for private repos);
// BrowserDownloadURL is the public-facing link.
type Asset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	URL                string `json:"url"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// Repository describes the source project being packaged.
type Repository struct {
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description"`
	License     string `json:"license"`
	Private     bool   `json:"private"`
}

// Platform is one operating system / architecture pair of the build matrix.
type Platform struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

var (
	DarwinAMD64 = Platform{OS: "darwin", Arch: "amd64"}
	DarwinARM64 = Platform{OS: "darwin", Arch: "arm64"}
	LinuxAMD64  = Platform{OS: "linux", Arch: "amd64"}
	LinuxARM64  = Platform{OS: "linux", Arch: "arm64"}
)

// KnownPlatforms lists every matrix pair in rendering order.
var KnownPlatforms = []Platform{DarwinAMD64, DarwinARM64, LinuxAMD64, LinuxARM64}

func (p Platform) String() string { return p.OS + "/" + p.Arch }

// Suffix is the conventional release asset name ending for this platform.
func (p Platform) Suffix() string { return "-" + p.OS + "-" + p.Arch + ".tar.gz" }

// PlatformFromURL reports the known platform whose suffix ends the URL.
func PlatformFromURL(url string) (Platform, bool) {
	for _, p := range KnownPlatforms {
		if strings.HasSuffix(url, p.Suffix()) {
			return p, true
		}
	}
	return Platform{}, false
}

// Matrix holds the independently requested platform flags.
type Matrix struct {
	DarwinAMD64 bool `json:"darwin_amd64" yaml:"darwin_amd64"`
	DarwinARM64 bool `json:"darwin_arm64" yaml:"darwin_arm64"`
	LinuxAMD64  bool `json:"linux_amd64" yaml:"linux_amd64"`
	LinuxARM64  bool `json:"linux_arm64" yaml:"linux_arm64"`
}

// Enabled reports whether the flag for p is set.
func (m Matrix) Enabled(p Platform) bool {
	switch p {
	case DarwinAMD64:
		return m.DarwinAMD64
	case DarwinARM64:
		return m.DarwinARM64
	case LinuxAMD64:
		return m.LinuxAMD64
	case LinuxARM64:
		return m.LinuxARM64
	default:
		return false
	}
}

// Platforms returns the enabled pairs in KnownPlatforms order.
func (m Matrix) Platforms() []Platform {
	var out []Platform
	for _, p := range KnownPlatforms {
		if m.Enabled(p) {
			out = append(out, p)
		}
	}
	return out
}

func (m Matrix) Empty() bool { return len(m.Platforms()) == 0 }

// Target is one artifact to be packaged. Platform is nil for source archives.
type Target struct {
	Filename string    `json:"filename" yaml:"filename"`
	Checksum string    `json:"checksum" yaml:"checksum"`
	URL      string    `json:"url" yaml:"url"`
	Platform *Platform `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// ResolvePlatform returns the tagged platform, falling back to the URL suffix.
func (t Target) ResolvePlatform() (Platform, bool) {
	if t.Platform != nil {
		return *t.Platform, true
	}
	return PlatformFromURL(t.URL)
}
