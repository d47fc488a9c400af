package utils

import (
	"bytes"
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
}

func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

// HexWindow formats up to n bytes of buf starting at pos, used to give
// context to decode errors.
func HexWindow(buf []byte, pos int, n int) string {
	if pos < 0 || pos >= len(buf) {
		return "<out of range>"
	}
	end := pos + n
	if end > len(buf) {
		end = len(buf)
	}

	var out bytes.Buffer
	for i, b := range buf[pos:end] {
		if i != 0 {
			out.WriteByte(' ')
		}
		out.WriteString(fmt.Sprintf("%.2x", b))
	}
	return out.String()
}
