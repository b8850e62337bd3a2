package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRenderer_Fragment(t *testing.T) {
	r := NewReportRenderer()

	out, err := r.Fragment("## files migration for sbnd\n\n| Count | Counter |\n| ---: | --- |\n| 1,234 | files queried |\n")
	require.NoError(t, err)

	assert.Contains(t, out, "<h2>files migration for sbnd</h2>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "files queried</td>")
	assert.Contains(t, out, "1,234")
	assert.NotContains(t, out, "<html>")
}

func TestReportRenderer_Sanitize(t *testing.T) {
	r := NewReportRenderer()

	out, err := r.Fragment("file <script>alert(1)</script> name")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "file")
}

func TestReportRenderer_Render(t *testing.T) {
	r := NewReportRenderer()

	out, err := r.Render("users <sbnd>", "3 users added.")
	require.NoError(t, err)
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>users &lt;sbnd&gt;</title>")
	assert.Contains(t, out, "<p>3 users added.</p>")
}
