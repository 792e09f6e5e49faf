package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageRefIdentifier(t *testing.T) {
	withID := ImageRef{ObjectID: "obj-1", Name: "123-a.jpg"}
	assert.Equal(t, "obj-1", withID.Identifier(), "object id is canonical when present")

	legacy := ImageRef{Name: "123-a.jpg"}
	assert.Equal(t, "123-a.jpg", legacy.Identifier(), "legacy entries fall back to the display name")
}

func TestImageRefMatches(t *testing.T) {
	ref := ImageRef{ObjectID: "obj-1", Name: "123-a.jpg"}

	assert.True(t, ref.Matches("obj-1"))
	assert.True(t, ref.Matches("123-a.jpg"), "display name is accepted even when the object id exists")
	assert.False(t, ref.Matches("obj-2"))
	assert.False(t, ref.Matches("a.jpg"))

	legacy := ImageRef{Name: "456-b.jpg"}
	assert.True(t, legacy.Matches("456-b.jpg"))
	assert.False(t, legacy.Matches(""))
}
