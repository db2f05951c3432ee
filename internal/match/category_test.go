package match

import (
	"testing"

	"github.com/norsteel/takeoff/internal/models"
)

func TestInferCategory(t *testing.T) {
	tests := []struct {
		name string
		item models.ExtractedLineItem
		want string
	}{
		{
			"pipe from description",
			models.ExtractedLineItem{Description: `PIPE 6" SCH40 ASTM A106 GR.B SMLS`},
			models.CategoryPipe,
		},
		{
			"fitting outranks pipe",
			models.ExtractedLineItem{Description: "PIPE ELBOW 90 DEG LR BW"},
			models.CategoryFitting,
		},
		{
			"flange",
			models.ExtractedLineItem{Description: `FLANGE WN RF 6" CL150 A105`},
			models.CategoryFlange,
		},
		{
			"fastener",
			models.ExtractedLineItem{Description: "STUD BOLT M20 X 100 A193 B7"},
			models.CategoryFastener,
		},
		{
			"gasket phrase",
			models.ExtractedLineItem{Description: `GASKET SPIRAL WOUND 2" CL150`},
			models.CategoryGasket,
		},
		{
			"beam designation",
			models.ExtractedLineItem{Description: "IPE 200 S355JR 12M"},
			models.CategoryBeam,
		},
		{
			"beam designation with size",
			models.ExtractedLineItem{Description: "HEB300 EN 10025"},
			models.CategoryBeam,
		},
		{
			"tubular",
			models.ExtractedLineItem{Description: "SS TUBE 25.4 X 2.11 A213 TP316L"},
			models.CategoryTubular,
		},
		{
			"plate",
			models.ExtractedLineItem{Description: "PLATE 3000 X 1500 X 12MM A36"},
			models.CategoryPlate,
		},
		{
			"plural form",
			models.ExtractedLineItem{Description: "FLANGES ASSORTED CL300"},
			models.CategoryFlange,
		},
		{
			"heat is not a beam designation",
			models.ExtractedLineItem{Description: "HEAT EXCHANGER SUPPORT"},
			"",
		},
		{
			"schedule hint implies pipe",
			models.ExtractedLineItem{Description: "SMLS BE 6M LG", Schedule: models.StrPtr("40")},
			models.CategoryPipe,
		},
		{
			"nothing recognizable",
			models.ExtractedLineItem{Description: "MISC SITE CONSUMABLES"},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferCategory(&tt.item); got != tt.want {
				t.Errorf("InferCategory(%q) = %q, want %q", tt.item.Description, got, tt.want)
			}
		})
	}
}

func TestCategoryOfPrefersInferredType(t *testing.T) {
	item := models.MergedLineItem{
		ExtractedLineItem: models.ExtractedLineItem{Description: "PIPE SMLS"},
		InferredType:      models.CategoryTubular,
	}
	if got := CategoryOf(&item); got != models.CategoryTubular {
		t.Errorf("CategoryOf = %q, want inferred type to win", got)
	}

	item.InferredType = ""
	if got := CategoryOf(&item); got != models.CategoryPipe {
		t.Errorf("CategoryOf = %q, want fresh inference", got)
	}
}
