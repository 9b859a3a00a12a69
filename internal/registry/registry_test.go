package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/pingwatch/internal/domain"
)

func TestReplaceAll_KeepsInsertionOrderAndReportsRemoved(t *testing.T) {
	r := New()
	removed := r.ReplaceAll([]domain.Target{
		{ID: "1", Name: "gw", IP: "10.0.0.1"},
		{ID: "2", Name: "dns", IP: "1.1.1.1"},
	})
	assert.Empty(t, removed)

	removed = r.ReplaceAll([]domain.Target{
		{ID: "3", Name: "nas", IP: "10.0.0.5"},
		{ID: "1", Name: "gateway", IP: "10.0.0.1"},
	})
	assert.Equal(t, []domain.TargetID{"2"}, removed)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, domain.TargetID("3"), list[0].ID)
	assert.Equal(t, "gateway", list[1].Name)
	_, ok := r.Get("2")
	assert.False(t, ok)
	_, ok = r.Get("1")
	assert.True(t, ok)
}

func TestReplaceAll_DropsDuplicateIDs(t *testing.T) {
	r := New()
	r.ReplaceAll([]domain.Target{
		{ID: "1", Name: "first", IP: "10.0.0.1"},
		{ID: "1", Name: "second", IP: "10.0.0.2"},
	})
	require.Len(t, r.List(), 1)
	got, ok := r.Get("1")
	require.True(t, ok)
	assert.Equal(t, "first", got.Name)
}

func TestList_ReturnsCopy(t *testing.T) {
	r := New()
	r.ReplaceAll([]domain.Target{{ID: "1", Name: "a", IP: "not-an-ip"}})
	list := r.List()
	list[0].Name = "mutated"
	got, _ := r.Get("1")
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, "not-an-ip", got.IP, "ip is stored without validation")
}
