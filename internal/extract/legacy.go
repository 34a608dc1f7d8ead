package extract

import (
	"fmt"
	"os"
	"strings"

	"code.sajari.com/docconv"
	"github.com/lu4p/cat"
)

// extractWithCat reads .rtf and .odt files.
func extractWithCat(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}
	return strings.TrimSpace(text), nil
}

// extractLegacyDoc converts binary Word files through docconv, which shells out to wvText.
func extractLegacyDoc(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open .doc: %w", err)
	}
	defer f.Close()
	res, err := docconv.Convert(f, "application/msword", false)
	if err != nil {
		return "", fmt.Errorf("convert .doc: %w", err)
	}
	return strings.TrimSpace(res.Body), nil
}
