package mimetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"report.txt", "text/plain"},
		{"REPORT.TXT", "text/plain"},
		{"photo.jpeg", "image/jpeg"},
		{"archive.tar.gz", "application/octet-stream"},
		{"noext", "application/octet-stream"},
		{".hidden", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.name).MimeType, tt.name)
	}
}

func TestClassify_Flags(t *testing.T) {
	assert.True(t, Classify("a.md").IsText)
	assert.True(t, Classify("a.png").IsImage)

	info := Classify("a.pdf")
	assert.False(t, info.IsText)
	assert.False(t, info.IsImage)
}
