package models

// Material categories used by the matcher to pick a scoring strategy.
const (
	CategoryPipe     = "pipe"
	CategoryBeam     = "beam"
	CategoryTubular  = "tubular"
	CategoryPlate    = "plate"
	CategoryFlange   = "flange"
	CategoryFitting  = "fitting"
	CategoryFastener = "fastener"
	CategoryGasket   = "gasket"
)

// Material is one catalog entry. Category-specific attributes are optional;
// the catalog store owns these rows and the core never mutates them.
type Material struct {
	ID               string   `json:"id" db:"id"`
	Code             string   `json:"code" db:"code"`
	Description      string   `json:"description" db:"description"`
	Category         string   `json:"category" db:"category"`
	NPSInch          *float64 `json:"nps_inch,omitempty" db:"nps_inch"`
	Schedule         *string  `json:"schedule,omitempty" db:"schedule"`
	ODMM             *float64 `json:"od_mm,omitempty" db:"od_mm"`
	WallThicknessMM  *float64 `json:"wall_thickness_mm,omitempty" db:"wall_thickness_mm"`
	BeamType         *string  `json:"beam_type,omitempty" db:"beam_type"`
	BeamDepthMM      *float64 `json:"beam_depth_mm,omitempty" db:"beam_depth_mm"`
	BeamWeightKgM    *float64 `json:"beam_weight_kg_m,omitempty" db:"beam_weight_kg_m"`
	PlateThicknessMM *float64 `json:"plate_thickness_mm,omitempty" db:"plate_thickness_mm"`
	SpecStandard     *string  `json:"spec_standard,omitempty" db:"spec_standard"`
	Grade            *string  `json:"grade,omitempty" db:"grade"`
	Form             *string  `json:"form,omitempty" db:"form"`
}

// PipeDimension is one row of the pipe dimension table, keyed by nominal size.
type PipeDimension struct {
	MaterialID  string  `json:"material_id" db:"material_id"`
	NPSInch     float64 `json:"nps_inch" db:"nps_inch"`
	Schedule    string  `json:"schedule" db:"schedule"`
	ODMM        float64 `json:"od_mm" db:"od_mm"`
	WallMM      float64 `json:"wall_mm" db:"wall_mm"`
	IsPreferred bool    `json:"is_preferred" db:"is_preferred"`
}
