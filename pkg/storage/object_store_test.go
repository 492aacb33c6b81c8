package storage

import "testing"

func TestAssetKeyKeepsOnlyExtension(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"Resume.PDF", "profiles/u-1/resume/abc.pdf"},
		{"../../etc/passwd", "profiles/u-1/resume/abc"},
		{`C:\Users\me\cv.docx`, "profiles/u-1/resume/abc.docx"},
	}
	for _, tc := range cases {
		if got := AssetKey("u-1", "resume", tc.filename, "abc"); got != tc.want {
			t.Fatalf("AssetKey(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}
