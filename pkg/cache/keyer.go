package cache

// Keyer generates cache keys for layouts and rendered artifacts.
type Keyer interface {
	// LayoutKey keys a layout computed from the snapshot with the given
	// fingerprint.
	LayoutKey(setHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact of a snapshot.
	ArtifactKey(setHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds the layout parameters that affect the result.
type LayoutKeyOpts struct {
	BlockSpacing   float64
	BranchSpacing  float64
	BlockWidth     float64
	BlockHeight    float64
	CollisionRatio float64
	ForkThreshold  float64
}

// ArtifactKeyOpts holds the render parameters that affect the result.
type ArtifactKeyOpts struct {
	Format   string
	Style    string
	Title    string
	Selected string
	Layout   LayoutKeyOpts
}

// DefaultKeyer hashes every option into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey generates a key of the form "layout:<sha256>".
func (DefaultKeyer) LayoutKey(setHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", setHash, opts)
}

// ArtifactKey generates a key of the form "artifact:<format>:<sha256>".
func (DefaultKeyer) ArtifactKey(setHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, setHash, opts)
}
