package normalize

// commonWords are dictionary words that also appear as firm names
// ("APPLE", "TARGET", "GENERAL"). A contained-name key made of one of these
// words must clear the stricter common-word length floor.
var commonWords = map[string]bool{
	"AMERICAN": true, "APPLE": true, "ADVANCED": true, "ALLIED": true,
	"APPLIED": true, "ATLANTIC": true, "CAPITAL": true, "CENTRAL": true,
	"CENTURY": true, "CITIZENS": true, "COMMERCE": true, "CONTINENTAL": true,
	"DELTA": true, "DYNAMICS": true, "EAGLE": true, "ENERGY": true,
	"FIRST": true, "FUSION": true, "GENERAL": true, "GENESIS": true,
	"GLOBAL": true, "GOLD": true, "GENERATION": true, "HEALTH": true,
	"HORIZON": true, "INNOVATION": true, "INSIGHT": true, "INTEGRATED": true,
	"INTERNATIONAL": true, "LIBERTY": true, "MATRIX": true, "MEDICAL": true,
	"MERIDIAN": true, "METRO": true, "NATIONAL": true, "NORTHERN": true,
	"OMEGA": true, "PACIFIC": true, "PIONEER": true, "PREMIER": true,
	"PRECISION": true, "RELIANCE": true, "RESEARCH": true, "SCIENCE": true,
	"SCIENTIFIC": true, "SECURITY": true, "SOUTHERN": true, "STANDARD": true,
	"STATE": true, "SUMMIT": true, "SYSTEMS": true, "TARGET": true,
	"TECHNOLOGY": true, "UNITED": true, "UNIVERSAL": true, "VISION": true,
	"WESTERN": true, "ALPHA": true, "BIO": true, "CELL": true,
	"GENOMICS": true, "NETWORK": true, "NETWORKS": true, "SOLUTIONS": true,
	"PHOTON": true, "QUANTUM": true, "VECTOR": true, "CATALYST": true,
}

// IsCommonWord reports whether a single normalized token is a generic
// dictionary word that collides across unrelated organizations.
func IsCommonWord(token string) bool {
	return commonWords[token]
}
