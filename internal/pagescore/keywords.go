package pagescore

// Domain keywords that indicate line-item tables in trading documents.
// Matched case-insensitively against page text.
var itemKeywords = []string{
	"QTY", "QUANTITY", "DESCRIPTION", "ITEM", "UNIT", "SIZE", "MATERIAL",
	"PIPE", "FLANGE", "ELBOW", "TEE", "REDUCER", "GASKET", "BOLT", "NUT",
	"VALVE", "BEAM", "PLATE", "ANGLE", "CHANNEL", "TUBE", "TUBING",
	"SCH", "ASTM", "ASME", "API", "DN", "NPS", "RATING", "CLASS",
	"LENGTH", "WEIGHT", "THICKNESS", "SEAMLESS", "WELDED", "GRADE",
	"PCS", "MTR", "KGS", "EA",
}

// Administrative/boilerplate keywords that indicate non-item pages
// (covers, indices, revision logs). A hit applies a large fixed penalty.
var adminKeywords = []string{
	"TABLE OF CONTENTS", "REVISION HISTORY", "DOCUMENT CONTROL",
	"TRANSMITTAL", "COVER SHEET", "DISTRIBUTION LIST", "GENERAL NOTES",
	"TERMS AND CONDITIONS", "APPROVAL SHEET", "HOLD LIST",
}
