package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePDF writes a minimal PDF with one text line per page.
func writePDF(t *testing.T, lines ...string) string {
	t.Helper()

	n := len(lines)
	// objects: 1 catalog, 2 pages, 3 font, then page/content pairs.
	objs := make([]string, 0, 3+2*n)
	var kids bytes.Buffer
	for i := range lines {
		fmt.Fprintf(&kids, "%d 0 R ", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, line := range lines {
		content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", line)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestPDFExtractor_ReadsText(t *testing.T) {
	path := writePDF(t, "Hello PDF World", "Second page text")
	e := NewPDFExtractor(nil)

	got := e.Extract(context.Background(), path, 50)
	assert.Contains(t, got, "Hello PDF World")
	assert.Contains(t, got, "Second page text")
}

func TestPDFExtractor_RespectsMaxPages(t *testing.T) {
	path := writePDF(t, "First page only", "Never read this")
	e := NewPDFExtractor(nil)

	got := e.Extract(context.Background(), path, 1)
	assert.Contains(t, got, "First page only")
	assert.NotContains(t, got, "Never read this")
}

func TestPDFExtractor_BadFilesYieldEmpty(t *testing.T) {
	e := NewPDFExtractor(nil)
	ctx := context.Background()

	assert.Empty(t, e.Extract(ctx, filepath.Join(t.TempDir(), "missing.pdf"), 10))

	junk := filepath.Join(t.TempDir(), "junk.pdf")
	require.NoError(t, os.WriteFile(junk, []byte("not a pdf at all"), 0o644))
	assert.Empty(t, e.Extract(ctx, junk, 10))
}
