package estimator

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/cropyield/internal/models"
)

func loadTestModel(t *testing.T) *TreeEnsemble {
	t.Helper()
	ens, err := LoadTreeEnsemble("testdata/model.json", DefaultBaseScore)
	require.NoError(t, err)
	return ens
}

func TestLoadTreeEnsemble(t *testing.T) {
	ens := loadTestModel(t)
	assert.Equal(t, 2, ens.Trees())
}

func TestLoadTreeEnsemble_MissingFile(t *testing.T) {
	_, err := LoadTreeEnsemble("testdata/nope.json", DefaultBaseScore)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "estimator.LoadTreeEnsemble")
}

func TestTreeEnsemble_Estimate(t *testing.T) {
	ens := loadTestModel(t)

	tests := []struct {
		name     string
		features models.FeatureVector
		want     float64
	}{
		{
			name:     "low previous yield, wet, heavy fertilizer",
			features: models.FeatureVector{PreviousYield: 2500, Rainfall: 150, FertilizerUsage: 60},
			want:     1800 + 700 + DefaultBaseScore,
		},
		{
			name:     "high previous yield, dry",
			features: models.FeatureVector{PreviousYield: 4000, Rainfall: 50},
			want:     3500 - 300 + DefaultBaseScore,
		},
		{
			name:     "split threshold goes to the no branch",
			features: models.FeatureVector{PreviousYield: 3000, Rainfall: 100, FertilizerUsage: 50},
			want:     3500 + 700 + DefaultBaseScore,
		},
		{
			name:     "missing values follow the missing branch",
			features: models.FeatureVector{PreviousYield: math.NaN(), Rainfall: math.NaN(), FertilizerUsage: 40},
			want:     1800 + 100 + DefaultBaseScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ens.Estimate(context.Background(), tt.features)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestTreeEnsemble_EstimateCanceled(t *testing.T) {
	ens := loadTestModel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ens.Estimate(ctx, models.FeatureVector{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTreeEnsemble_ConcurrentUse(t *testing.T) {
	ens := loadTestModel(t)
	features := models.FeatureVector{PreviousYield: 4000, Rainfall: 50}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ens.Estimate(context.Background(), features)
			assert.NoError(t, err)
			assert.InDelta(t, 3200.5, got, 1e-9)
		}()
	}
	wg.Wait()
}

func TestTreeEnsemble_ZeroLeafIsALeaf(t *testing.T) {
	ens, err := ParseTreeEnsemble(strings.NewReader(`[{"nodeid":0,"leaf":0}]`), 10)
	require.NoError(t, err)

	got, err := ens.Estimate(context.Background(), models.FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, 10.0, got)
}

func TestParseTreeEnsemble_Invalid(t *testing.T) {
	tests := []struct {
		name string
		dump string
	}{
		{name: "not json", dump: `{{`},
		{name: "empty array", dump: `[]`},
		{name: "null tree", dump: `[null]`},
		{name: "unknown child", dump: `[{"nodeid":0,"split":"f0","split_condition":1,"yes":1,"no":2,"missing":1,"children":[{"nodeid":1,"leaf":1}]}]`},
		{name: "unknown feature", dump: `[{"nodeid":0,"split":"humidity","split_condition":1,"yes":1,"no":2,"missing":1,"children":[{"nodeid":1,"leaf":1},{"nodeid":2,"leaf":2}]}]`},
		{name: "feature out of range", dump: `[{"nodeid":0,"split":"f7","split_condition":1,"yes":1,"no":2,"missing":1,"children":[{"nodeid":1,"leaf":1},{"nodeid":2,"leaf":2}]}]`},
		{name: "duplicate ids", dump: `[{"nodeid":0,"split":"f0","split_condition":1,"yes":1,"no":1,"missing":1,"children":[{"nodeid":1,"leaf":1},{"nodeid":1,"leaf":2}]}]`},
		{name: "cycle", dump: `[{"nodeid":0,"split":"f0","split_condition":1,"yes":0,"no":1,"missing":1,"children":[{"nodeid":1,"leaf":1}]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTreeEnsemble(strings.NewReader(tt.dump), DefaultBaseScore)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidModel))
		})
	}
}

func TestFeatureIndex(t *testing.T) {
	for i, name := range models.FeatureNames {
		got, err := featureIndex(name)
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}

	got, err := featureIndex("f6")
	require.NoError(t, err)
	assert.Equal(t, 6, got)
}

func TestFuncAndUnavailable(t *testing.T) {
	var est Estimator = Func(func(context.Context, models.FeatureVector) (float64, error) {
		return 3200, nil
	})
	got, err := est.Estimate(context.Background(), models.FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, 3200.0, got)

	_, err = Unavailable{}.Estimate(context.Background(), models.FeatureVector{})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}
