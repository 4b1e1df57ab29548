package graph

// RelationshipType classifies how a source artifact depends on a target
type RelationshipType string

const (
	RelImports    RelationshipType = "imports"
	RelCalls      RelationshipType = "calls"
	RelReferences RelationshipType = "references"
	RelExtends    RelationshipType = "extends"
	RelImplements RelationshipType = "implements"
	RelStyles     RelationshipType = "styles"
	RelDependsOn  RelationshipType = "depends_on"
)

// baseStrength is the base coupling strength per relationship type
var baseStrength = map[RelationshipType]float64{
	RelImports:    0.8,
	RelCalls:      0.9,
	RelReferences: 0.7,
	RelExtends:    0.95,
	RelImplements: 0.9,
	RelStyles:     0.4,
	RelDependsOn:  0.6,
}

// Coupling strength bounds. Every stored edge stays within these.
const (
	MinCouplingStrength = 0.1
	MaxCouplingStrength = 1.0
)

// KnownRelationship reports whether the relationship type is supported
func KnownRelationship(rel RelationshipType) bool {
	_, ok := baseStrength[rel]
	return ok
}

// ComputeCouplingStrength derives an edge's coupling strength from its
// relationship type and metadata flags, clamped to [0.1, 1.0].
// Flags: isCritical +0.2, frequency=="high" +0.1, isOptional -0.3.
func ComputeCouplingStrength(rel RelationshipType, metadata map[string]interface{}) float64 {
	strength, ok := baseStrength[rel]
	if !ok {
		strength = MinCouplingStrength
	}

	if flagSet(metadata, "isCritical") {
		strength += 0.2
	}
	if freq, ok := metadata["frequency"].(string); ok && freq == "high" {
		strength += 0.1
	}
	if flagSet(metadata, "isOptional") {
		strength -= 0.3
	}

	if strength < MinCouplingStrength {
		return MinCouplingStrength
	}
	if strength > MaxCouplingStrength {
		return MaxCouplingStrength
	}
	return strength
}

func flagSet(metadata map[string]interface{}, key string) bool {
	v, ok := metadata[key].(bool)
	return ok && v
}
