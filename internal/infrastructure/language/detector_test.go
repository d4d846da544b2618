package language

import (
	"testing"

	"github.com/pemistahl/lingua-go"
	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	d := New(lingua.English, lingua.German, lingua.French)

	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"The weather is lovely today and we are going for a long walk.", "English", true},
		{"Das Wetter ist heute schön und wir gehen lange spazieren.", "German", true},
		{"Il fait beau aujourd'hui et nous allons faire une longue promenade.", "French", true},
		{"ok", "", false},
		{"   ", "", false},
	}
	for _, tt := range tests {
		got, ok := d.Detect(tt.text)
		assert.Equal(t, tt.wantOK, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}
