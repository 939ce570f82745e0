package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hberrors "github.com/seiforesti/searchhub/internal/errors"
)

func testSources() []SourceDescriptor {
	return []SourceDescriptor{
		{ID: "catalog", DisplayName: "Data Catalog", DisplayWeight: 1.0},
		{ID: "compliance", DisplayName: "Compliance", DisplayWeight: 1.2, AccessRequirement: "compliance.read"},
		{ID: "scan", DisplayName: "Scan Results", DisplayWeight: 0.8, AccessRequirement: "scan.read"},
		{ID: "glossary", DisplayName: "Glossary", DisplayWeight: 0.5},
	}
}

func TestNew_ValidSources(t *testing.T) {
	r, err := New(testSources())
	require.NoError(t, err)
	assert.Equal(t, 4, r.Len())
}

func TestNew_RejectsEmptyID(t *testing.T) {
	_, err := New([]SourceDescriptor{{ID: "", DisplayWeight: 1}})
	require.Error(t, err)
	assert.Equal(t, hberrors.ErrCodeRegistryInvalid, hberrors.GetCode(err))
}

func TestNew_RejectsDuplicateID(t *testing.T) {
	_, err := New([]SourceDescriptor{
		{ID: "catalog", DisplayWeight: 1},
		{ID: "catalog", DisplayWeight: 1},
	})
	require.Error(t, err)
	assert.Equal(t, hberrors.ErrCodeSourceDuplicate, hberrors.GetCode(err))
}

func TestNew_RejectsNonPositiveWeight(t *testing.T) {
	_, err := New([]SourceDescriptor{{ID: "catalog", DisplayWeight: 0}})
	assert.Error(t, err)
}

func TestRegistry_Get(t *testing.T) {
	r, err := New(testSources())
	require.NoError(t, err)

	s, ok := r.Get("compliance")
	assert.True(t, ok)
	assert.Equal(t, "Compliance", s.DisplayName)

	_, ok = r.Get("nope")
	assert.False(t, ok)
}

func TestRegistry_AllPreservesLoadOrder(t *testing.T) {
	r, err := New(testSources())
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 4)
	assert.Equal(t, "catalog", all[0].ID)
	assert.Equal(t, "glossary", all[3].ID)
}

func TestAccessible_EmptyCapsYieldsPublicOnly(t *testing.T) {
	r, err := New(testSources())
	require.NoError(t, err)

	out := r.Accessible(nil)
	require.Len(t, out, 2)
	assert.Equal(t, "catalog", out[0].ID)
	assert.Equal(t, "glossary", out[1].ID)
}

func TestAccessible_CapabilityAdmitsGatedSource(t *testing.T) {
	r, err := New(testSources())
	require.NoError(t, err)

	out := r.Accessible(map[string]bool{"compliance.read": true})
	ids := make([]string, len(out))
	for i, s := range out {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"catalog", "compliance", "glossary"}, ids)
}

// Soundness: no capability set may admit a source whose requirement the
// caller does not hold.
func TestAccessible_NeverLeaksGatedSources(t *testing.T) {
	r, err := New(testSources())
	require.NoError(t, err)

	capSets := []map[string]bool{
		nil,
		{},
		{"unrelated.cap": true},
		{"compliance.read": false},
		{"scan.read": true},
	}
	for _, caps := range capSets {
		for _, s := range r.Accessible(caps) {
			if !s.Public() {
				assert.True(t, caps[s.AccessRequirement],
					"source %s admitted without capability %s", s.ID, s.AccessRequirement)
			}
		}
	}
}

func TestReplace_SwapsAtomically(t *testing.T) {
	r, err := New(testSources())
	require.NoError(t, err)

	err = r.Replace([]SourceDescriptor{{ID: "fresh", DisplayWeight: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	_, ok := r.Get("catalog")
	assert.False(t, ok)
}

func TestReplace_FailureKeepsNothingPartial(t *testing.T) {
	r, err := New(testSources())
	require.NoError(t, err)

	err = r.Replace([]SourceDescriptor{
		{ID: "ok", DisplayWeight: 1},
		{ID: "bad", DisplayWeight: -1},
	})
	require.Error(t, err)

	// Previous snapshot intact.
	assert.Equal(t, 4, r.Len())
	_, ok := r.Get("catalog")
	assert.True(t, ok)
}
