package metadata

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/your-org/moments/internal/models"
)

var heicExtensions = map[string]bool{".heic": true, ".heif": true, ".hif": true}

var heicBrands = [][]byte{[]byte("heic"), []byte("heix"), []byte("mif1"), []byte("msf1"), []byte("heim"), []byte("heis")}

// DetectFormat declares the source format from the file name, falling back
// to the ISO-BMFF brand in the first bytes.
func DetectFormat(filename string, data []byte) models.SourceFormat {
	if heicExtensions[strings.ToLower(filepath.Ext(filename))] {
		return models.SourceFormatHEIC
	}
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		for _, brand := range heicBrands {
			if bytes.Equal(data[8:12], brand) {
				return models.SourceFormatHEIC
			}
		}
	}
	return models.SourceFormatGeneric
}
