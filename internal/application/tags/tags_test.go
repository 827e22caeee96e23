package tags

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
}

func TestRender_ReplacesTagsCaseInsensitive(t *testing.T) {
	r := NewRenderer(1, fixedNow)

	out := r.Render("to #EMAIL# on #Date# at #time#", "bob@example.com")
	assert.Equal(t, "to bob@example.com on 2024-03-09 at 14:05:07", out)
}

func TestRender_RandomFields(t *testing.T) {
	r := NewRenderer(42, fixedNow)

	out := r.Render("#fullname#|#num#|#address#", "bob@example.com")
	parts := strings.Split(out, "|")
	require.Len(t, parts, 3)

	assert.Regexp(t, `^[A-Z][a-z]+ [A-Z][a-z]+$`, parts[0])
	assert.Regexp(t, `^[1-9][0-9]{7}$`, parts[1])
	m := regexp.MustCompile(`^(\d+) [A-Za-z ]+, [A-Za-z. ]+, FL (\d{5})$`).FindStringSubmatch(parts[2])
	require.NotNil(t, m, parts[2])
}

func TestRender_RanbodyUsesLocalPart(t *testing.T) {
	r := NewRenderer(7, fixedNow)

	out := r.Render("#ranbody#", "alice.smith@example.com")
	assert.Contains(t, out, "alice.smith,")
	assert.NotContains(t, out, "#")
}

func TestRender_Empty(t *testing.T) {
	r := NewRenderer(1, fixedNow)
	assert.Equal(t, "", r.Render("", "x@y.z"))
	assert.Equal(t, "plain text", r.Render("plain text", "x@y.z"))
}

func TestAttachmentFilename(t *testing.T) {
	r := NewRenderer(1, fixedNow)

	got := r.AttachmentFilename("Spring Sale/2024", "bob@example.com", "invoice.PDF")
	assert.Equal(t, "20240309-Spring_Sale_2024-bob.PDF", got)

	got = r.AttachmentFilename("c", "bob@example.com", "noext")
	assert.Equal(t, "20240309-c-bob", got)
}

func TestRandomUIDAndBetween(t *testing.T) {
	r := NewRenderer(3, fixedNow)

	uid := r.RandomUID(10)
	assert.Regexp(t, `^[0-9]{10}$`, uid)

	for i := 0; i < 50; i++ {
		v := r.Between(2, 4)
		assert.GreaterOrEqual(t, v, 2)
		assert.LessOrEqual(t, v, 4)
	}
	assert.Equal(t, 5, r.Between(5, 5))
	assert.Equal(t, "", r.Pick(nil))
	assert.Equal(t, "only", r.Pick([]string{"only"}))
}
