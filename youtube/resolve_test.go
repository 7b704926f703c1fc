package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	const id = "dQw4w9WgXcQ"
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"watch", "https://www.youtube.com/watch?v=" + id, id},
		{"watch no www", "https://youtube.com/watch?v=" + id, id},
		{"watch mobile", "https://m.youtube.com/watch?v=" + id, id},
		{"watch no scheme", "www.youtube.com/watch?v=" + id, id},
		{"watch http", "http://youtube.com/watch?v=" + id, id},
		{"watch extra params after", "https://www.youtube.com/watch?v=" + id + "&t=42s", id},
		{"watch extra params before", "https://www.youtube.com/watch?feature=share&v=" + id, id},
		{"watch any host", "https://x.test/watch?v=ABCDEFGHIJK", "ABCDEFGHIJK"},
		{"embed", "https://www.youtube.com/embed/" + id, id},
		{"embed with query", "https://www.youtube.com/embed/" + id + "?autoplay=1", id},
		{"v path", "https://www.youtube.com/v/" + id, id},
		{"live", "https://www.youtube.com/live/" + id, id},
		{"live with si", "https://www.youtube.com/live/" + id + "?si=abc", id},
		{"shorts", "https://youtube.com/shorts/" + id, id},
		{"shorts no scheme", "youtube.com/shorts/" + id, id},
		{"short link", "https://youtu.be/" + id, id},
		{"short link no scheme", "youtu.be/" + id, id},
		{"short link with time", "https://youtu.be/" + id + "?t=10", id},
		{"bare", id, id},
		{"bare with whitespace", "  " + id + "\n", id},
		{"bare dash underscore", "a-b_c-d_e-f", "a-b_c-d_e-f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, ok := Resolve(tt.ref)
			assert.True(t, ok)
			assert.Equal(t, tt.want, src.ID)
			assert.Equal(t, "https://www.youtube.com/watch?v="+tt.want, src.URL)
			assert.Equal(t, tt.ref, src.RawReference)
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	refs := []string{
		"",
		"   ",
		"not a url",
		"dQw4w9WgXc",   // 10 chars
		"dQw4w9WgXcQQ", // 12 chars
		"dQw4w9WgX!Q",
		"https://www.youtube.com/",
		"https://www.youtube.com/watch?v=short",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQQ",
		"https://youtu.be/",
		"https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw",
		"https://vimeo.com/123456789",
	}
	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			src, ok := Resolve(ref)
			assert.False(t, ok)
			assert.Empty(t, src.ID)
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	first, ok := Resolve("https://youtu.be/dQw4w9WgXcQ")
	assert.True(t, ok)

	second, ok := Resolve(first.URL)
	assert.True(t, ok)
	assert.Equal(t, first.ID, second.ID)

	third, ok := Resolve(first.ID)
	assert.True(t, ok)
	assert.Equal(t, first.URL, third.URL)
}

func TestIsValidID(t *testing.T) {
	assert.True(t, IsValidID("dQw4w9WgXcQ"))
	assert.False(t, IsValidID("dQw4w9WgXc"))
	assert.False(t, IsValidID("dQw4w9WgX Q"))
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.youtube.com/live/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://youtube.com/live/dQw4w9WgXcQ?si=x", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"youtube.com/live/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ"},
		{"https://www.youtube.com/live/short", "https://www.youtube.com/live/short"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeURL(tt.in), tt.in)
	}
}
