// Package media holds the value types that flow through the normalization
// pipeline: raw inputs picked by the user, normalized images, and the
// identified items stored in a variant's image list.
package media

// RawInput is anything a caller can hand to an image list: a remote URL that
// is already hosted, a local file that still needs converting, a record that
// was normalized earlier, or an input that could not be classified.
//
// The set of implementations is closed; dispatch with a type switch over
// RemoteURL, *LocalFile, NormalizedRecord and Invalid.
type RawInput interface {
	rawInput()
}

// RemoteURL is an image already stored by the backend or CDN.
type RemoteURL string

// NormalizedRecord is an input that already carries a stable id.
type NormalizedRecord struct {
	ID  string
	Src Source
}

// Invalid is an input that matched none of the known shapes.
type Invalid struct {
	Reason string
}

func (RemoteURL) rawInput()        {}
func (*LocalFile) rawInput()       {}
func (NormalizedRecord) rawInput() {}
func (Invalid) rawInput()          {}

// Source is what an Item points at: either freshly normalized bytes or the
// URL of an image the backend already has.
type Source interface {
	source()
}

func (RemoteURL) source()        {}
func (*NormalizedImage) source() {}

// Item is one entry of a variant image list.
type Item struct {
	ID  string
	Src Source
}

// Remote reports whether the item references an existing remote image, and
// returns its URL.
func (it Item) Remote() (RemoteURL, bool) {
	u, ok := it.Src.(RemoteURL)
	return u, ok
}

// Image returns the normalized image held by the item, if any.
func (it Item) Image() (*NormalizedImage, bool) {
	img, ok := it.Src.(*NormalizedImage)
	return img, ok && img != nil
}
