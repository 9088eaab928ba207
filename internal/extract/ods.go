package extract

import (
	"fmt"
	"regexp"
)

// odfContentPath is the path to the main content inside OpenDocument zips.
const odfContentPath = "content.xml"

// odsTable matches one sheet (<table:table ...>...</table:table>).
var odsTable = regexp.MustCompile(`(?s)<table:table(?:\s[^>]*)?>(.*?)</table:table>`)

// odfText matches text:p, text:span and text:h elements with their attributes; innermost
// text only, so a span inside a paragraph is read once.
var odfText = regexp.MustCompile(`<text:(?:p|span|h)(?:\s[^>]*)?>([^<]*)</text:(?:p|span|h)>`)

func readODFContent(content []byte, format string) (string, error) {
	zr, err := openZip(content, format)
	if err != nil {
		return "", err
	}
	data, err := readZipEntry(zr, odfContentPath)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}
	if data == nil {
		return "", fmt.Errorf("extract %s: %s not found", format, odfContentPath)
	}
	return string(data), nil
}

// odsPages returns one page per sheet of an OpenDocument spreadsheet.
func odsPages(content []byte) ([]string, error) {
	s, err := readODFContent(content, "ODS")
	if err != nil {
		return nil, err
	}
	tables := odsTable.FindAllStringSubmatch(s, -1)
	if len(tables) == 0 {
		return []string{joinMatches(odfText, s)}, nil
	}
	pages := make([]string, len(tables))
	for i, t := range tables {
		pages[i] = joinMatches(odfText, t[1])
	}
	return pages, nil
}
