// Package xmlutil holds decoding helpers shared by the XML feeds.
package xmlutil

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"
)

// CharsetReader decodes the legacy code pages the bank declares in its XML
// prologs. Pass it to xml.Decoder.CharsetReader.
func CharsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch charset {
	case "windows-1251":
		return charmap.Windows1251.NewDecoder().Reader(input), nil
	case "koi8-r":
		return charmap.KOI8R.NewDecoder().Reader(input), nil
	}

	return nil, fmt.Errorf("charset %s is not defined", charset)
}
