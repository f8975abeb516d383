package version

import "fmt"

// VERSION indicates the major.minor.patch version the binary was built off
// of, injected via -ldflags at release build time.
var VERSION string

// GITCOMMIT indicates which git hash (12char) the binary was built off of.
var GITCOMMIT string

// PluginProtocolVersion is the group:name@version:component URI grammar
// version (§6) the running binary's ExtensionManager understands. Bumped
// whenever the component URI grammar or ArtifactBlueprint contract changes
// in a way that could break an out-of-tree plugin.
const PluginProtocolVersion = "1"

func VersionToString() string {
	if VERSION == "" && GITCOMMIT == "" {
		return ""
	}
	return fmt.Sprintf("%s - %s", VERSION, GITCOMMIT)
}

// Short returns just the semantic version, or "dev" when no release
// version was injected (a local, non-release build).
func Short() string {
	if VERSION == "" {
		return "dev"
	}
	return VERSION
}
