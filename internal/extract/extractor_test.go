package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func pageTexts(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Text
	}
	return out
}

func assertPages(t *testing.T, got []Page, want ...string) {
	t.Helper()
	if !reflect.DeepEqual(pageTexts(got), want) {
		t.Errorf("pages = %q, want %q", pageTexts(got), want)
	}
	for i, p := range got {
		if p.Number != i+1 {
			t.Errorf("page %d has Number %d", i, p.Number)
		}
	}
}

func TestPagesFromBytes_plain(t *testing.T) {
	e := NewExtractor()
	got, err := e.PagesFromBytes([]byte("Hello world\nLine 2"), ".txt")
	if err != nil {
		t.Fatalf("PagesFromBytes: %v", err)
	}
	assertPages(t, got, "Hello world\nLine 2")
}

func TestPagesFromBytes_plainFormFeed(t *testing.T) {
	e := NewExtractor()
	got, err := e.PagesFromBytes([]byte("page one\fpage two\f"), ".md")
	if err != nil {
		t.Fatalf("PagesFromBytes: %v", err)
	}
	assertPages(t, got, "page one", "page two", "")
}

func TestPagesFromBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.PagesFromBytes([]byte("hello\x80world"), ".rst")
	if err != nil {
		t.Fatalf("PagesFromBytes: %v", err)
	}
	assertPages(t, got, "hello�world")
}

func TestPagesFromBytes_excelSheetPerPage(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	if _, err := f.NewSheet("Q2"); err != nil {
		t.Fatal(err)
	}
	f.SetCellValue("Q2", "A1", "Revenue")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	e := NewExtractor()
	got, err := e.PagesFromBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("PagesFromBytes: %v", err)
	}
	assertPages(t, got, "Title\nValue 1\tValue 2", "Revenue")
}

func TestExtractPages_file(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.TXT")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().ExtractPages(path)
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	assertPages(t, got, "File content")
}

func TestExtractPages_nonexistent(t *testing.T) {
	if _, err := NewExtractor().ExtractPages("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestPagesFromBytes_unknownExtension(t *testing.T) {
	got, err := NewExtractor().PagesFromBytes([]byte("raw content"), ".xyz")
	if err != nil {
		t.Fatalf("PagesFromBytes: %v", err)
	}
	assertPages(t, got, "raw content")
}

func TestPagesFromBytes_pdfNotPDF(t *testing.T) {
	if _, err := NewExtractor().PagesFromBytes([]byte("not a pdf"), ".pdf"); err == nil {
		t.Error("expected error for invalid pdf")
	}
}

const wordNS = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`

// minimalDocx returns a minimal .docx zip with word/document.xml holding body.
func minimalDocx(body string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(wordNS + `<w:body>` + body + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func para(text string) string {
	return `<w:p w:rsidR="00A1"><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

// minimalDocxWithContentTypes returns a .docx zip with [Content_Types].xml pointing to a custom document path.
func minimalDocxWithContentTypes(text, docPath string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/` + docPath + `" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`))
	fw, _ := w.Create(docPath)
	_, _ = fw.Write([]byte(wordNS + `<w:body>` + para(text) + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestPagesFromBytes_docx(t *testing.T) {
	got, err := NewExtractor().PagesFromBytes(minimalDocx(para("Quarterly report")), ".docx")
	if err != nil {
		t.Fatalf("PagesFromBytes: %v", err)
	}
	assertPages(t, got, "Quarterly report")
}

func TestPagesFromBytes_docxPageBreaks(t *testing.T) {
	body := para("First page") + `<w:p><w:r><w:br w:type="page"/></w:r></w:p>` + para("Second page") +
		`<w:p><w:r><w:br w:type="textWrapping"/><w:t>still second</w:t></w:r></w:p>`
	got, err := NewExtractor().PagesFromBytes(minimalDocx(body), ".docx")
	if err != nil {
		t.Fatalf("PagesFromBytes: %v", err)
	}
	assertPages(t, got, "First page", "Second page still second")
}

func TestPagesFromBytes_docxWithDocument2(t *testing.T) {
	content := minimalDocxWithContentTypes("Content from document2", "word/document2.xml")
	got, err := NewExtractor().PagesFromBytes(content, ".docx")
	if err != nil {
		t.Fatalf("PagesFromBytes: %v", err)
	}
	assertPages(t, got, "Content from document2")
}

func TestPagesFromBytes_docxContentTypesReversedOrder(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/word/document3.xml"/>
</Types>`))
	fw, _ := w.Create("word/document3.xml")
	_, _ = fw.Write([]byte(wordNS + `<w:body>` + para("Reversed order test") + `</w:body></w:document>`))
	_ = w.Close()

	got, err := NewExtractor().PagesFromBytes(buf.Bytes(), ".docx")
	if err != nil {
		t.Fatalf("PagesFromBytes: %v", err)
	}
	assertPages(t, got, "Reversed order test")
}

func TestPagesFromBytes_docxMissingBody(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, _ = w.Create("docProps/core.xml")
	_ = w.Close()
	if _, err := NewExtractor().PagesFromBytes(buf.Bytes(), ".docx"); err == nil {
		t.Error("expected error when document.xml is missing")
	}
}

func zipWith(files map[string]string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		fw, _ := w.Create(name)
		_, _ = fw.Write([]byte(body))
	}
	_ = w.Close()
	return buf.Bytes()
}

func slideXML(text string) string {
	return `<p:sld><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

func TestPagesFromBytes_pptxSlideOrder(t *testing.T) {
	content := zipWith(map[string]string{
		"ppt/slides/slide10.xml":            slideXML("Tenth"),
		"ppt/slides/slide2.xml":             slideXML("Second"),
		"ppt/slides/slide1.xml":             slideXML("First"),
		"ppt/slides/_rels/slide1.xml.rels":  `<Relationships/>`,
		"ppt/slideLayouts/slideLayout1.xml": slideXML("Layout"),
	})
	got, err := NewExtractor().PagesFromBytes(content, ".pptx")
	if err != nil {
		t.Fatalf("PagesFromBytes: %v", err)
	}
	assertPages(t, got, "First", "Second", "Tenth")
}

func TestPagesFromBytes_pptxNotZip(t *testing.T) {
	if _, err := NewExtractor().PagesFromBytes([]byte("not a zip"), ".pptx"); err == nil {
		t.Error("expected error for invalid pptx")
	}
}

func TestPagesFromBytes_odpSlidePerPage(t *testing.T) {
	contentXML := `<office:document><office:body><office:presentation>` +
		`<draw:page draw:name="p1"><text:h>Slide title</text:h><text:p>Body text</text:p></draw:page>` +
		`<draw:page draw:name="p2"><draw:text-box><text:p text:style-name="P1">Second</text:p></draw:text-box></draw:page>` +
		`</office:presentation></office:body></office:document>`
	got, err := NewExtractor().PagesFromBytes(zipWith(map[string]string{"content.xml": contentXML}), ".odp")
	if err != nil {
		t.Fatalf("PagesFromBytes: %v", err)
	}
	assertPages(t, got, "Slide title Body text", "Second")
}

func TestPagesFromBytes_odsSheetPerPage(t *testing.T) {
	contentXML := `<office:document><office:body><office:spreadsheet>` +
		`<table:table table:name="A"><table:table-row><table:table-cell><text:p>Cell A</text:p></table:table-cell>` +
		`<table:table-cell><text:span>Cell B</text:span></table:table-cell></table:table-row></table:table>` +
		`<table:table table:name="B"><table:table-row><table:table-cell><text:p>Other</text:p></table:table-cell></table:table-row></table:table>` +
		`</office:spreadsheet></office:body></office:document>`
	got, err := NewExtractor().PagesFromBytes(zipWith(map[string]string{"content.xml": contentXML}), ".ods")
	if err != nil {
		t.Fatalf("PagesFromBytes: %v", err)
	}
	assertPages(t, got, "Cell A Cell B", "Other")
}

func TestPagesFromBytes_odfContentNotFound(t *testing.T) {
	content := zipWith(map[string]string{"other.xml": "<x/>"})
	for _, ext := range []string{".odp", ".ods"} {
		if _, err := NewExtractor().PagesFromBytes(content, ext); err == nil {
			t.Errorf("%s: expected error when content.xml missing", ext)
		}
	}
}

func TestSupported(t *testing.T) {
	for _, ext := range []string{".pdf", ".PDF", ".docx", ".rtf", ".xlsx"} {
		if !Supported(ext) {
			t.Errorf("Supported(%q) = false", ext)
		}
	}
	if Supported(".exe") {
		t.Error("Supported(.exe) = true")
	}
}

func TestTotalChars(t *testing.T) {
	pages := []Page{{Number: 1, Text: "  ab  "}, {Number: 2, Text: "\n"}, {Number: 3, Text: "é"}}
	if got := TotalChars(pages); got != 3 {
		t.Errorf("TotalChars() = %d, want 3", got)
	}
}
