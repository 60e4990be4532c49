//go:build !unix

package fifobridge

func allocatePipes(parentDir, invocationID string) (*pipePair, error) {
	return nil, ErrUnsupported
}

func holdForks() (release func()) {
	return func() {}
}
