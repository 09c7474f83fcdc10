package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsListable(t *testing.T) {
	assert.True(t, IsListable("a.jpg"))
	assert.True(t, IsListable("a.JPEG"))
	assert.True(t, IsListable("a.png"))
	assert.False(t, IsListable("a.webp"))
	assert.False(t, IsListable("debug.json"))
}

func TestExtensionAndContentType(t *testing.T) {
	assert.Equal(t, ".png", ExtensionFor("image/png"))
	assert.Equal(t, ".jpg", ExtensionFor("image/jpeg; charset=binary"))
	assert.Equal(t, ".webp", ExtensionFor("image/webp"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("x.jpg"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("x.bin"))
}

func TestSafeName(t *testing.T) {
	assert.True(t, SafeName("with_images_1.jpg"))
	assert.False(t, SafeName("../etc/passwd"))
	assert.False(t, SafeName("a/b.png"))
	assert.False(t, SafeName(".."))
	assert.False(t, SafeName(""))
}
