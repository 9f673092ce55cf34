package costmodel

import (
	"fmt"
	"sort"

	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/domain"
)

// Registry maps vehicle profile keys to cost models. It is immutable
// after construction; registering another profile means building a new
// registry.
type Registry struct {
	models map[string]CostModel
}

func NewRegistry(models map[string]CostModel) *Registry {
	copied := make(map[string]CostModel, len(models))
	for key, model := range models {
		copied[key] = model
	}
	return &Registry{models: copied}
}

func (r *Registry) Get(profileKey string) (CostModel, error) {
	model, ok := r.models[profileKey]
	if !ok {
		return nil, domain.WrapErrorf(nil, domain.ErrUnknownProfile,
			"profile %q is not registered", profileKey)
	}
	return model, nil
}

func (r *Registry) ProfileKeys() []string {
	keys := make([]string, 0, len(r.models))
	for key := range r.models {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Precompute predicts per-edge energy for one profile over the whole
// graph. Pure with respect to graph and model; the caller (the
// precompute maintenance flow) writes the result back under
// energy_<profileKey> via Graph.SetEdgeWeights. A negative predicted
// energy rate clamps to zero before scaling by edge distance.
func (r *Registry) Precompute(g *datastructure.Graph, profileKey string) (map[int32]float64, error) {
	model, err := r.Get(profileKey)
	if err != nil {
		return nil, err
	}

	rows := make([]FeatureRow, 0, g.GetNumEdges())
	for _, edge := range g.Edges {
		row := FeatureRow{}
		var ok bool
		if row.SpeedMph, ok = edge.Weights[datastructure.SpeedWeightName]; !ok {
			return nil, domain.WrapErrorf(nil, domain.ErrMissingWeightAttribute,
				"edge %d has no %q attribute", edge.EdgeID, datastructure.SpeedWeightName)
		}
		if row.DistanceMiles, ok = edge.Weights[datastructure.DistanceWeightName]; !ok {
			return nil, domain.WrapErrorf(nil, domain.ErrMissingWeightAttribute,
				"edge %d has no %q attribute", edge.EdgeID, datastructure.DistanceWeightName)
		}
		if row.GradePercent, ok = edge.Weights[datastructure.GradeWeightName]; !ok {
			return nil, domain.WrapErrorf(nil, domain.ErrMissingWeightAttribute,
				"edge %d has no %q attribute", edge.EdgeID, datastructure.GradeWeightName)
		}
		rows = append(rows, row)
	}

	rates, err := model.PredictEnergyRate(rows)
	if err != nil {
		return nil, fmt.Errorf("predict energy for profile %q: %w", profileKey, err)
	}
	if len(rates) != len(rows) {
		return nil, fmt.Errorf("model for profile %q returned %d rates for %d edges",
			profileKey, len(rates), len(rows))
	}

	energy := make(map[int32]float64, len(rates))
	for i, edge := range g.Edges {
		rate := rates[i]
		if rate < 0 {
			rate = 0
		}
		energy[edge.EdgeID] = rate * rows[i].DistanceMiles
	}

	return energy, nil
}
