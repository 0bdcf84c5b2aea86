package file

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// LookupEncoding resolves a WHATWG encoding label such as "windows-1250" or
// "latin2". Empty and UTF-8 labels return a nil Encoding: the input is read
// as is.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if canon, _ := htmlindex.Name(enc); canon == "utf-8" {
		return nil, nil
	}
	return enc, nil
}

// Decode wraps rc so reads yield UTF-8 decoded from the named encoding.
// Closing the result closes rc.
func Decode(rc io.ReadCloser, name string) (io.ReadCloser, error) {
	enc, err := LookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return rc, nil
	}
	return decodedReader{
		Reader: transform.NewReader(rc, enc.NewDecoder()),
		Closer: rc,
	}, nil
}

type decodedReader struct {
	io.Reader
	io.Closer
}
