package analyzer

// RegionName identifies a facial region polygon
type RegionName string

const (
	RegionSkin     RegionName = "skin"
	RegionLeftEye  RegionName = "left_eye"
	RegionRightEye RegionName = "right_eye"
	RegionLip      RegionName = "lip"
	RegionHair     RegionName = "hair"
)

// RegionDefinition is an ordered list of face-mesh landmark indices whose
// points, in this order, form the region polygon. Repeated indices are part
// of the reference tables and are kept as-is.
type RegionDefinition struct {
	Name    RegionName
	Indices []int
}

// MeshLandmarkCount is the number of landmarks produced by the reference
// face mesh model. Detectors with refined iris landmarks return 478.
const MeshLandmarkCount = 468

var regionTable = map[RegionName]RegionDefinition{
	RegionSkin: {
		Name: RegionSkin,
		Indices: []int{
			// forehead and cheeks
			10, 151, 9, 10, 151, 234, 127, 162, 21, 54, 103, 67, 109, 10, 151,
			116, 117, 118, 119, 120, 121, 126, 142, 36, 205, 206, 207, 213, 192, 147, 90, 180,
		},
	},
	RegionLeftEye: {
		Name:    RegionLeftEye,
		Indices: []int{33, 7, 163, 144, 145, 153, 154, 155, 133, 173, 157, 158, 159, 160, 161, 246},
	},
	RegionRightEye: {
		Name:    RegionRightEye,
		Indices: []int{362, 382, 381, 380, 374, 373, 390, 249, 263, 466, 388, 387, 386, 385, 384, 398},
	},
	RegionLip: {
		Name: RegionLip,
		Indices: []int{
			// outer contour
			61, 84, 17, 314, 405, 320, 307, 375, 321, 308, 324, 318,
			// inner contour
			78, 95, 88, 178, 87, 14, 317, 402, 318, 324, 308, 415,
		},
	},
	RegionHair: {
		Name: RegionHair,
		Indices: []int{
			// top of head and forehead
			10, 151, 9, 10, 151, 234, 127, 162, 21, 54, 103, 67, 109,
			// hairline
			9, 10, 151, 234, 127, 162, 21, 54, 103, 67, 109, 10, 151,
		},
	},
}

// Region returns a copy of the named region definition
func Region(name RegionName) (RegionDefinition, bool) {
	def, ok := regionTable[name]
	if !ok {
		return RegionDefinition{}, false
	}
	indices := make([]int, len(def.Indices))
	copy(indices, def.Indices)
	return RegionDefinition{Name: def.Name, Indices: indices}, true
}

// mustRegion is used for the built-in regions only
func mustRegion(name RegionName) RegionDefinition {
	def, ok := Region(name)
	if !ok {
		panic("analyzer: unknown region " + string(name))
	}
	return def
}
