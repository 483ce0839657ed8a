package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAudio(t *testing.T) {
	f := Formatter{BaseURL: "https://api.example.com/", CloudName: "demo"}

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"empty", "", ""},
		{"absolute http", "http://cdn.example.com/a.mp3", "http://cdn.example.com/a.mp3"},
		{"absolute https", "https://cdn.example.com/a.mp3", "https://cdn.example.com/a.mp3"},
		{"cloudinary path", "MusicPlayerPRO/songs/a.mp3", "https://res.cloudinary.com/demo/video/upload/MusicPlayerPRO/songs/a.mp3"},
		{"server relative with slash", "/uploads/a.mp3", "https://api.example.com/uploads/a.mp3"},
		{"server relative without slash", "uploads/a.mp3", "https://api.example.com/uploads/a.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Audio(tt.ref))
		})
	}
}

func TestAudioIdempotent(t *testing.T) {
	f := Formatter{BaseURL: "https://api.example.com", CloudName: "demo"}

	once := f.Audio("MusicPlayerPRO/songs/a.mp3")
	assert.Equal(t, once, f.Audio(once))

	once = f.Audio("/uploads/a.mp3")
	assert.Equal(t, once, f.Audio(once))
}

func TestImage(t *testing.T) {
	f := Formatter{BaseURL: "https://api.example.com", CloudName: "demo"}

	assert.Equal(t,
		"https://res.cloudinary.com/demo/image/upload/w_300,q_auto/MusicPlayerPRO/covers/a.jpg",
		f.Image("MusicPlayerPRO/covers/a.jpg", 300))
	assert.Equal(t,
		"https://res.cloudinary.com/demo/image/upload/MusicPlayerPRO/covers/a.jpg",
		f.Image("MusicPlayerPRO/covers/a.jpg", 0))
	assert.Equal(t, "https://api.example.com/uploads/a.jpg", f.Image("uploads/a.jpg", 300))
	assert.Equal(t, "https://x.test/a.jpg", f.Image("https://x.test/a.jpg", 300))
}
