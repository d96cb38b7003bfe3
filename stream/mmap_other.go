//go:build !unix

package stream

import "os"

func openMapped(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &Source{data: data, kind: sourceOwned}, nil
}

func (s *Source) unmap() error {
	return nil
}
