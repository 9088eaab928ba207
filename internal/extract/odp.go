package extract

import "regexp"

// odpSlide matches one slide (<draw:page ...>...</draw:page>).
var odpSlide = regexp.MustCompile(`(?s)<draw:page(?:\s[^>]*)?>(.*?)</draw:page>`)

// odpPages returns one page per slide of an OpenDocument presentation.
func odpPages(content []byte) ([]string, error) {
	s, err := readODFContent(content, "ODP")
	if err != nil {
		return nil, err
	}
	slides := odpSlide.FindAllStringSubmatch(s, -1)
	if len(slides) == 0 {
		return []string{joinMatches(odfText, s)}, nil
	}
	pages := make([]string, len(slides))
	for i, sl := range slides {
		pages[i] = joinMatches(odfText, sl[1])
	}
	return pages, nil
}
