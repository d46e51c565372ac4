package model

// Build is one externally-sourced item with scalar stats and a set tag map.
//
// The JSON tags follow the remote endpoint's field names. ID is assigned by the
// store and is never present on the inbound wire form.
type Build struct {
	ID           int64     `json:"id,omitempty"`
	ArtifactCode *string   `json:"artifactCode"`
	Atk          int       `json:"atk"`
	Chc          int       `json:"chc"`
	Chd          int       `json:"chd"`
	CreateDate   string    `json:"createDate"`
	Def          int       `json:"def"`
	Eff          int       `json:"eff"`
	Efr          int       `json:"efr"`
	GS           int       `json:"gs"`
	HP           int       `json:"hp"`
	Sets         SetCounts `json:"sets"`
	Spd          int       `json:"spd"`
	UnitCode     string    `json:"unitCode"`
	UnitName     string    `json:"unitName"`
}

// BuildResponse is the envelope returned by the builds endpoint.
type BuildResponse struct {
	Data []Build `json:"data"`
}

// RequiredFields lists the keys every inbound build element must carry.
// artifactCode is the only optional one.
var RequiredFields = []string{
	"atk",
	"chc",
	"chd",
	"createDate",
	"def",
	"eff",
	"efr",
	"gs",
	"hp",
	"sets",
	"spd",
	"unitCode",
	"unitName",
}
