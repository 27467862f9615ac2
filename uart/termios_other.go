//go:build !linux

package uart

func (p *Port) configure() error {
	return ErrUnsupportedPlatform
}

func (p *Port) attributes() (Snapshot, error) {
	return Snapshot{}, ErrUnsupportedPlatform
}
