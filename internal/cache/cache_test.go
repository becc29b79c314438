package cache

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psi-indicator-engine/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func testEncounter() *domain.Encounter {
	return &domain.Encounter{
		ID:                   "ENC-1",
		Age:                  61,
		Sex:                  domain.SexFemale,
		MDC:                  8,
		MSDRG:                "470",
		AdmissionType:        domain.AdmissionTypeElective,
		DischargeDisposition: 1,
		LengthOfStay:         3,
		Diagnoses:            []domain.Diagnosis{{Code: "M1711", Position: 0, POA: domain.POA_YES}},
		Procedures:           []domain.Procedure{{Code: "0SRD0J9", Position: 1, DayOffset: 0}},
	}
}

func testVerdicts() []domain.Verdict {
	return []domain.Verdict{
		domain.Eligible(domain.PSI_11, true, ""),
		domain.Excluded(domain.PSI_07, domain.EXCL_LOS),
		domain.NotInPopulation(domain.PSI_17, domain.POP_NOT_NEWBORN),
	}
}

func TestKey(t *testing.T) {
	enc := testEncounter()

	key, err := Key(enc, "2024:abc")
	require.NoError(t, err)
	assert.Contains(t, key, "psi:verdicts:")

	again, err := Key(testEncounter(), "2024:abc")
	require.NoError(t, err)
	assert.Equal(t, key, again)

	t.Run("identifier is ignored", func(t *testing.T) {
		other := testEncounter()
		other.ID = "ENC-2"
		k, err := Key(other, "2024:abc")
		require.NoError(t, err)
		assert.Equal(t, key, k)
		assert.Equal(t, "ENC-2", other.ID)
	})

	t.Run("reference version changes the key", func(t *testing.T) {
		k, err := Key(enc, "2024:def")
		require.NoError(t, err)
		assert.NotEqual(t, key, k)
	})

	t.Run("content changes the key", func(t *testing.T) {
		other := testEncounter()
		other.Diagnoses[0].POA = domain.POA_NO
		k, err := Key(other, "2024:abc")
		require.NoError(t, err)
		assert.NotEqual(t, key, k)
	})

	_, err = Key(nil, "2024")
	assert.Error(t, err)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	require.NoError(t, err)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)

	c.Set(ctx, "a", testVerdicts())
	got, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, testVerdicts(), got)

	t.Run("entries are copies", func(t *testing.T) {
		got[1].Reasons[0] = domain.EXCL_POA
		again, _ := c.Get(ctx, "a")
		assert.Equal(t, domain.EXCL_LOS, again[1].Reasons[0])
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c.Set(ctx, "b", testVerdicts())
		c.Get(ctx, "a")
		c.Set(ctx, "c", testVerdicts())

		_, ok := c.Get(ctx, "b")
		assert.False(t, ok)
		_, ok = c.Get(ctx, "a")
		assert.True(t, ok)
		assert.Equal(t, 2, c.Len())
	})

	c.Purge()
	assert.Equal(t, 0, c.Len())

	_, err = NewMemoryCache(-1)
	assert.Error(t, err)
}

func TestTiered(t *testing.T) {
	ctx := context.Background()
	near, err := NewMemoryCache(4)
	require.NoError(t, err)
	far, err := NewMemoryCache(4)
	require.NoError(t, err)
	tiered := NewTiered(near, far)

	far.Set(ctx, "k", testVerdicts())
	got, ok := tiered.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, testVerdicts(), got)

	_, ok = near.Get(ctx, "k")
	assert.True(t, ok, "far hit should be copied into near")

	tiered.Set(ctx, "j", testVerdicts()[:1])
	_, ok = near.Get(ctx, "j")
	assert.True(t, ok)
	_, ok = far.Get(ctx, "j")
	assert.True(t, ok)

	_, ok = tiered.Get(ctx, "missing")
	assert.False(t, ok)
	assert.NoError(t, tiered.Close())
}

func TestNew(t *testing.T) {
	c, err := New(domain.CacheConfig{Enabled: false}, testLogger())
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(domain.CacheConfig{Enabled: true, MaxItems: 8}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
	assert.NoError(t, Close(c))

	_, err = New(domain.CacheConfig{Enabled: true, RedisURL: "not-a-url"}, testLogger())
	assert.Error(t, err)
}
