// Package archive unpacks the ZIP containers the Bank of Russia publishes
// its reference feeds in.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var ErrMemberNotFound = errors.New("archive member not found")

// SoleXML extracts the single XML document contained in the archive.
func SoleXML(b []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("zip.NewReader: %w", err)
	}

	for _, f := range r.File {
		if strings.EqualFold(path.Ext(f.Name), ".xml") {
			return readMember(f)
		}
	}

	return nil, fmt.Errorf("no xml document: %w", ErrMemberNotFound)
}

// Member extracts the named archive member. Member names published by the
// bank vary in case between archives, the match is case-insensitive.
func Member(b []byte, name string) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("zip.NewReader: %w", err)
	}

	for _, f := range r.File {
		if strings.EqualFold(f.Name, name) {
			return readMember(f)
		}
	}

	return nil, fmt.Errorf("%s: %w", name, ErrMemberNotFound)
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open member %s: %w", f.Name, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read member %s: %w", f.Name, err)
	}

	return b, nil
}
