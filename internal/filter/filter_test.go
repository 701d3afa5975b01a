package filter

import (
	"testing"
	"time"

	"github.com/harrison/sift/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEmptySpecMatchesEverything(t *testing.T) {
	set, err := Build(Spec{}, time.Now(), Available())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())

	ok, err := set.Matches(brokenEntry())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSpecIsEmpty(t *testing.T) {
	assert.True(t, Spec{}.IsEmpty())
	assert.False(t, Spec{Sizes: []string{"+1k"}}.IsEmpty())
	assert.False(t, Spec{ChangedBefore: "1d"}.IsEmpty())
	assert.False(t, Spec{XAttrs: []string{"user.flag"}}.IsEmpty())

	var none *Set
	ok, err := none.Matches(brokenEntry())
	require.NoError(t, err)
	assert.True(t, ok, "a nil set accepts every entry")
}

func TestBuildConjunction(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	set, err := Build(Spec{
		Sizes:         []string{"+1k", "-10k"},
		ChangedWithin: "7d",
	}, now, Capabilities{})
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())

	entry := func(size int64, mtime time.Time) *models.Entry {
		return models.NewEntryWithInfo("f", 1, false, fakeInfo{name: "f", size: size, mtime: mtime}, nil)
	}

	tests := []struct {
		name  string
		entry *models.Entry
		want  bool
	}{
		{"all satisfied", entry(5000, now.Add(-time.Hour)), true},
		{"too small", entry(10, now.Add(-time.Hour)), false},
		{"too large", entry(50_000, now.Add(-time.Hour)), false},
		{"too old", entry(5000, now.Add(-30*24*time.Hour)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := set.Matches(tt.entry)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestBuildRejectsMalformedSpec(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want error
	}{
		{"size", Spec{Sizes: []string{"10x"}}, ErrInvalidUnit},
		{"newer", Spec{ChangedWithin: "soon"}, ErrInvalidTime},
		{"older", Spec{ChangedBefore: "later"}, ErrInvalidTime},
		{"xattr", Spec{XAttrs: []string{"=v"}}, ErrInvalidXAttr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.spec, time.Now(), Capabilities{ExtendedAttributes: true})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuildRequiresCapabilities(t *testing.T) {
	_, err := Build(Spec{Owner: "0"}, time.Now(), Capabilities{})
	assert.ErrorIs(t, err, ErrUnsupportedOnPlatform)

	_, err = Build(Spec{XAttrs: []string{"user.a"}}, time.Now(), Capabilities{Owner: true})
	assert.ErrorIs(t, err, ErrUnsupportedOnPlatform)
}

func TestSetMatchesReportsMetadataFailure(t *testing.T) {
	set := NewSet(SizeFilter{Comparator: AtLeast, Limit: 0})
	ok, err := set.Matches(brokenEntry())
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrMetadataUnavailable)
	assert.Contains(t, err.Error(), "size filter")
}

func TestCapabilitiesRequire(t *testing.T) {
	caps := Capabilities{Owner: true}
	assert.NoError(t, caps.Require(CapOwner))
	assert.ErrorIs(t, caps.Require(CapOwner, CapSameFilesystem), ErrUnsupportedOnPlatform)
	assert.False(t, caps.Has(Capability("bogus")))
}
