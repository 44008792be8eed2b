package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalIndentForTest(d *StoredData) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

func TestCodeSet_ParseAndIsAllowed(t *testing.T) {
	cs, err := ParseCodeSet("200,300..=399,404")
	require.NoError(t, err)

	assert.True(t, cs.IsAllowed(200))
	assert.True(t, cs.IsAllowed(300))
	assert.True(t, cs.IsAllowed(399))
	assert.True(t, cs.IsAllowed(404))
	assert.False(t, cs.IsAllowed(400))
	assert.False(t, cs.IsAllowed(199))
}

func TestCodeSet_ExclusiveRange(t *testing.T) {
	cs, err := ParseCodeSet("300..400")
	require.NoError(t, err)

	assert.True(t, cs.IsAllowed(399))
	assert.False(t, cs.IsAllowed(400))
}

func TestCodeSet_RoundTrip(t *testing.T) {
	orig, err := ParseCodeSet("200,300..=399")
	require.NoError(t, err)

	reparsed, err := ParseCodeSet(orig.String())
	require.NoError(t, err)

	for code := 190; code < 410; code++ {
		assert.Equal(t, orig.IsAllowed(code), reparsed.IsAllowed(code), "code %d", code)
	}
}

func TestInstance_TagSetDedupedAndSorted(t *testing.T) {
	inst := NewInstance("https://a.example/", []string{"https", "clearnet", "https", "ipv4"})
	assert.Equal(t, []string{"clearnet", "https", "ipv4"}, inst.TagList())
}

func TestInstance_HasAllTags(t *testing.T) {
	inst := NewInstance("https://a.example/", []string{"clearnet", "https", "ipv4"})

	required := tagSet([]string{"clearnet", "https"})
	assert.True(t, inst.HasAllTags(required))

	required = tagSet([]string{"clearnet", "tor"})
	assert.False(t, inst.HasAllTags(required))
}

func TestInstance_HasAnyTag(t *testing.T) {
	inst := NewInstance("https://a.example/", []string{"clearnet", "https", "cloudflare"})

	forbidden := tagSet([]string{"cloudflare"})
	assert.True(t, inst.HasAnyTag(forbidden))

	forbidden = tagSet([]string{"tor"})
	assert.False(t, inst.HasAnyTag(forbidden))
}

func TestValidate_ZeroInstancesRequiresDeprecatedMessage(t *testing.T) {
	d := &StoredData{Services: []Service{
		{Name: "gone", Instances: nil},
	}}

	report := Validate(d)
	require.False(t, report.OK())
	assert.Contains(t, report.Errors[0], "deprecated_message")
}

func TestValidate_ZeroInstancesOKWithDeprecatedMessage(t *testing.T) {
	d := &StoredData{Services: []Service{
		{Name: "gone", DeprecatedMessage: "service retired", Instances: nil},
	}}

	report := Validate(d)
	assert.True(t, report.OK())
}

func TestValidate_DuplicateInstanceURL(t *testing.T) {
	d := &StoredData{Services: []Service{
		{Name: "a", DeprecatedMessage: "", Instances: []Instance{NewInstance("https://dup.example/", nil)}},
		{Name: "b", DeprecatedMessage: "", Instances: []Instance{NewInstance("https://dup.example/", nil)}},
	}}

	report := Validate(d)
	require.False(t, report.OK())
	found := false
	for _, e := range report.Errors {
		if contains(e, "dup.example") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_BadRegexFails(t *testing.T) {
	d := &StoredData{Services: []Service{
		{
			Name:      "a",
			Instances: []Instance{NewInstance("https://a.example/", nil)},
			Regexes:   []Regex{{Pattern: "(unclosed"}},
		},
	}}

	report := Validate(d)
	assert.False(t, report.OK())
}

func TestValidate_NameMustMatchPattern(t *testing.T) {
	d := &StoredData{Services: []Service{
		{Name: "Bad Name!", Instances: []Instance{NewInstance("https://a.example/", nil)}},
	}}

	report := Validate(d)
	assert.False(t, report.OK())
}

func TestCanonicalize_SortsServicesAndInstances(t *testing.T) {
	d := &StoredData{Services: []Service{
		{Name: "zeta", Instances: []Instance{NewInstance("https://z2.example/", nil), NewInstance("https://z1.example/", nil)}},
		{Name: "alpha", Instances: nil},
	}}

	d.Canonicalize()

	require.Len(t, d.Services, 2)
	assert.Equal(t, "alpha", d.Services[0].Name)
	assert.Equal(t, "zeta", d.Services[1].Name)
	assert.Equal(t, "https://z1.example/", d.Services[1].Instances[0].URL)
}

func TestCanonicalize_Idempotent(t *testing.T) {
	d := &StoredData{Services: []Service{
		{Name: "zeta", Instances: []Instance{NewInstance("https://z2.example/", []string{"b", "a"})}},
	}}

	d.Canonicalize()
	first, err := marshalIndentForTest(d)
	require.NoError(t, err)

	d.Canonicalize()
	second, err := marshalIndentForTest(d)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
