package jobboard

import "bytes"

func bytesReader(s string) *bytes.Reader {
	return bytes.NewReader([]byte(s))
}
