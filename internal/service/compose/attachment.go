package compose

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
)

// encodeImage converts a file into the inline data-URI representation the
// send endpoint expects. The MIME type is sniffed from the content, so an
// image renamed to the wrong extension still encodes correctly.
func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	mime := http.DetectContentType(data)
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}
