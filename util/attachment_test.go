package util

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\x\notes.txt`, "notes.txt"},
		{"dir/sub/photo.png", "photo.png"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsAllowedAttachmentExtension(t *testing.T) {
	allowed := []string{"a.pdf", "b.DOC", "c.docx", "d.txt", "e.jpg", "f.jpeg", "g.PNG"}
	for _, name := range allowed {
		if !IsAllowedAttachmentExtension(name) {
			t.Errorf("%q should be allowed", name)
		}
	}

	denied := []string{"run.exe", "script.sh", "archive.zip", "noextension", "x.pdf.exe"}
	for _, name := range denied {
		if IsAllowedAttachmentExtension(name) {
			t.Errorf("%q should be denied", name)
		}
	}
}

func TestDetectInlineContentType(t *testing.T) {
	if !DetectInlineContentType("photo.jpeg") {
		t.Error("jpeg should render inline")
	}
	if DetectInlineContentType("report.docx") {
		t.Error("docx should not render inline")
	}
}
